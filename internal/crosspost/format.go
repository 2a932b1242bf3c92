package crosspost

import (
	"strings"
	"unicode/utf8"

	"github.com/0x0BSoD/crossPoster/internal/model"
)

// MaxTweetLength is the ceiling for a formatted tweet, in characters.
const MaxTweetLength = 277

const ellipsis = "... "

// Format builds the outbound text for a platform. Facebook and Telegram get the
// comment and the link separated by a blank line; tags are only embedded in tweets.
func Format(platform model.Platform, comment, link string, tags []string) string {
	if platform == model.PlatformTwitter {
		return formatTweet(comment, link, tags)
	}

	if strings.TrimSpace(comment) == "" {
		return link
	}
	return comment + "\n\n" + link
}

// formatTweet lays the tweet out as "{comment} {tags} {link}". The comment
// segment (comment plus its joining space) gets whatever the tail leaves of
// MaxTweetLength; an oversized comment is cut and closed with "... ".
func formatTweet(comment, link string, tags []string) string {
	tail := link
	if tagText := strings.Join(tags, " "); tagText != "" {
		tail = tagText + " " + link
	}

	budget := MaxTweetLength - utf8.RuneCountInString(tail)

	return tweetComment(comment, budget) + tail
}

func tweetComment(comment string, budget int) string {
	if strings.TrimSpace(comment) == "" {
		return ""
	}

	runes := []rune(comment)
	if len(runes)+1 <= budget {
		return comment + " "
	}
	// no room for any of the comment next to the ellipsis
	if budget <= utf8.RuneCountInString(ellipsis) {
		return ""
	}

	return string(runes[:budget-4]) + ellipsis
}
