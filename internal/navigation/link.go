package navigation

import (
	"slices"
	"strings"
	"unicode"

	"nestboard/internal/domain"
)

const (
	prefixLen  = 6
	slugMaxLen = 30

	homeSlug     = "home"
	imageSlug    = "image"
	untitledSlug = "untitled"
)

// Slugify lowercases s, drops punctuation and joins words with hyphens.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '-' || r == '_':
			pendingHyphen = true
		}
	}
	out := b.String()
	if r := []rune(out); len(r) > slugMaxLen {
		out = strings.TrimRight(string(r[:slugMaxLen]), "-")
	}
	return out
}

// NodeSlug derives the slug of a node from the element that owns it.
func NodeSlug(tree Tree, nodeID string) string {
	if nodeID == domain.RootID {
		return homeSlug
	}
	n, ok := tree.Node(nodeID)
	if !ok {
		return untitledSlug
	}
	if parent, ok := tree.Node(n.ParentID); ok {
		if i := parent.IndexOf(nodeID); i >= 0 {
			el := parent.Elements[i]
			if el.IsImage() {
				return imageSlug
			}
			if slug := Slugify(el.Text); slug != "" {
				return slug
			}
			return untitledSlug
		}
	}
	if slug := Slugify(n.Title); slug != "" {
		return slug
	}
	return untitledSlug
}

// Encode returns the deep-link hash of a node: "#slug-prefix", or "#" for root.
func Encode(tree Tree, nodeID string) string {
	if nodeID == "" || nodeID == domain.RootID {
		return "#"
	}
	prefix := nodeID
	if len(prefix) > prefixLen {
		prefix = prefix[:prefixLen]
	}
	return "#" + NodeSlug(tree, nodeID) + "-" + prefix
}

// Decode resolves a deep-link hash to a node id. Empty and "#" mean root.
// When several nodes share the id prefix, the one whose slug matches wins;
// remaining ties go to the lowest node id. Unresolvable hashes yield root and false.
func Decode(tree Tree, hash string) (string, bool) {
	hash = strings.TrimPrefix(strings.TrimSpace(hash), "#")
	if hash == "" {
		return domain.RootID, true
	}
	slug, prefix := splitHash(hash)
	if prefix == "" {
		return domain.RootID, false
	}

	var candidates []string
	tree.Walk(domain.RootID, func(n *domain.Node) {
		if n.ID != domain.RootID && strings.HasPrefix(n.ID, prefix) {
			candidates = append(candidates, n.ID)
		}
	})
	if len(candidates) == 0 {
		return domain.RootID, false
	}
	slices.Sort(candidates)
	if len(candidates) == 1 {
		return candidates[0], true
	}
	for _, id := range candidates {
		if NodeSlug(tree, id) == slug {
			return id, true
		}
	}
	return candidates[0], true
}

// splitHash separates "slug-prefix". Encoded prefixes are exactly six
// characters, which may themselves contain hyphens.
func splitHash(hash string) (slug, prefix string) {
	if n := len(hash); n > prefixLen && hash[n-prefixLen-1] == '-' {
		return hash[:n-prefixLen-1], hash[n-prefixLen:]
	}
	i := strings.LastIndexByte(hash, '-')
	if i < 0 {
		return "", hash
	}
	return hash[:i], hash[i+1:]
}
