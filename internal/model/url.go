package model

import (
	"net/url"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// jobNamespace seeds deterministic job ids. Changing it re-keys every record.
var jobNamespace = uuid.MustParse("6f1c2a8e-5d0b-4e7a-9c3f-2b8d7e4a1c90")

// identityParams are query parameters that name the posting itself on pages
// like "/careers?gh_jid=123". NormalizeURL keeps them.
var identityParams = []string{"gh_jid", "jobid", "job_id", "jid", "posting_id"}

// NormalizeURL returns the dedup key for a posting URL: lowercase scheme and
// host without "www.", no fragment, no trailing slash, and no query except
// identityParams. Unparseable input is trimmed and lowercased.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(strings.ToLower(raw), "/")
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	scheme := strings.ToLower(u.Scheme)
	if scheme == "" {
		scheme = "https"
	}
	path := strings.TrimRight(u.EscapedPath(), "/")
	return scheme + "://" + host + path + identityQuery(u.Query())
}

func identityQuery(q url.Values) string {
	kept := url.Values{}
	for key, values := range q {
		if k := strings.ToLower(key); slices.Contains(identityParams, k) && len(values) > 0 && values[0] != "" {
			kept.Set(k, values[0])
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return "?" + kept.Encode()
}

// JobID derives the stable identity of a posting from its URL.
func JobID(rawURL string) string {
	return "job_" + uuid.NewSHA1(jobNamespace, []byte(NormalizeURL(rawURL))).String()
}
