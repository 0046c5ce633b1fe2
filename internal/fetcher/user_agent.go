package fetcher

import (
	"math/rand"
	"sort"
	"strings"
	"time"
)

type UserAgentType string

const (
	UserAgentAuto    UserAgentType = "auto"
	UserAgentChrome  UserAgentType = "chrome"
	UserAgentFirefox UserAgentType = "firefox"
	UserAgentSafari  UserAgentType = "safari"
	UserAgentEdge    UserAgentType = "edge"
)

// fallbackUserAgent is a desktop Chrome string used when no family matches.
const fallbackUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

var userAgents = map[UserAgentType][]string{
	UserAgentChrome: {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	},
	UserAgentFirefox: {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.4; rv:125.0) Gecko/20100101 Firefox/125.0",
		"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	},
	UserAgentSafari: {
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4_1) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4.1 Safari/605.1.15",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_3) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.3 Safari/605.1.15",
	},
	UserAgentEdge: {
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
	},
}

// allUserAgents is the flattened pool in a stable order, so a seeded selector
// always yields the same sequence.
var allUserAgents = func() []string {
	types := make([]string, 0, len(userAgents))
	for t := range userAgents {
		types = append(types, string(t))
	}
	sort.Strings(types)

	var all []string
	for _, t := range types {
		all = append(all, userAgents[UserAgentType(t)]...)
	}
	return all
}()

type UserAgentSelector struct {
	rng *rand.Rand
}

func NewUserAgentSelector() *UserAgentSelector {
	return NewSeededUserAgentSelector(time.Now().UnixNano())
}

func NewSeededUserAgentSelector(seed int64) *UserAgentSelector {
	return &UserAgentSelector{
		rng: rand.New(rand.NewSource(seed)),
	}
}

// GetUserAgent returns a user agent string for the requested browser family.
// "auto" or empty picks from every family; an unknown value is treated as a
// literal user agent string.
func (uas *UserAgentSelector) GetUserAgent(uaType string) string {
	trimmed := strings.TrimSpace(uaType)
	normalized := strings.ToLower(trimmed)

	if normalized == "" {
		normalized = string(UserAgentAuto)
	}

	switch UserAgentType(normalized) {
	case UserAgentAuto:
		return uas.pick(allUserAgents)
	case UserAgentChrome, UserAgentFirefox, UserAgentSafari, UserAgentEdge:
		return uas.pick(userAgents[UserAgentType(normalized)])
	default:
		return trimmed
	}
}

func (uas *UserAgentSelector) pick(pool []string) string {
	if len(pool) == 0 {
		return fallbackUserAgent
	}
	return pool[uas.rng.Intn(len(pool))]
}
