// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ident classifies and normalizes paper identifiers returned by
// the source adapters.
package ident

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Type classifies an identifier.
type Type int

const (
	TypeUnknown Type = iota
	TypeArxiv
	TypeDOI
	TypeURL
)

// arxivPattern matches arXiv IDs: "2301.07041", "arXiv:2301.07041", "2301.07041v2".
var arxivPattern = regexp.MustCompile(`^(?:arXiv:)?(\d{4}\.\d{4,5})(?:v\d+)?$`)

// doiPattern matches DOIs: "10.1145/1234567.1234568".
var doiPattern = regexp.MustCompile(`^10\.\d{4,9}/[^\s]+$`)

var doiPrefixes = []string{
	"https://doi.org/",
	"http://doi.org/",
	"https://dx.doi.org/",
	"http://dx.doi.org/",
	"doi:",
}

// Classify determines the identifier type and returns its normalized form.
// arXiv IDs lose their "arXiv:" prefix and version suffix; DOIs are
// normalized with NormalizeDOI.
func Classify(identifier string) (Type, string) {
	identifier = strings.TrimSpace(identifier)

	if m := arxivPattern.FindStringSubmatch(identifier); m != nil {
		return TypeArxiv, m[1]
	}

	if doi := NormalizeDOI(identifier); doiPattern.MatchString(doi) {
		return TypeDOI, doi
	}

	if u, err := url.Parse(identifier); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return TypeURL, identifier
	}

	return TypeUnknown, identifier
}

// NormalizeDOI lowercases and trims a DOI and strips resolver prefixes such
// as "https://doi.org/". It returns "" for blank input.
func NormalizeDOI(doi string) string {
	doi = strings.ToLower(strings.TrimSpace(doi))
	for _, p := range doiPrefixes {
		if strings.HasPrefix(doi, p) {
			doi = strings.TrimSpace(doi[len(p):])
			break
		}
	}
	return doi
}

// DOIURL returns the doi.org resolver URL for a DOI.
func DOIURL(doi string) string {
	if doi == "" {
		return ""
	}
	return "https://doi.org/" + doi
}

// ArxivIDFromURL pulls the arXiv ID from an abs or pdf URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" becomes "2301.07041").
func ArxivIDFromURL(idURL string) string {
	var id string
	for _, prefix := range []string{"/abs/", "/pdf/"} {
		if idx := strings.Index(idURL, prefix); idx >= 0 {
			id = idURL[idx+len(prefix):]
			break
		}
	}
	if id == "" {
		return ""
	}
	id = strings.TrimSuffix(id, ".pdf")

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
