package util

import "regexp"

var (
	hashtagRe = regexp.MustCompile(`#([\p{L}\d_]+)`)
	mentionRe = regexp.MustCompile(`@([A-Za-z\d_.]+)`)
)

// ExtractHashtags returns the distinct hashtag words in content, without
// the leading '#', in order of first appearance.
func ExtractHashtags(content string) []string {
	return extract(hashtagRe, content)
}

// ExtractMentions returns the distinct @-mentioned usernames in content.
func ExtractMentions(content string) []string {
	return extract(mentionRe, content)
}

func extract(re *regexp.Regexp, content string) []string {
	matches := re.FindAllStringSubmatch(content, -1)
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}
