// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

package pasco

import (
	"net"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/net/publicsuffix"
)

// Domain returns the registrable domain of a url, e.g. example.co.uk for
// http://www.example.co.uk/index.html. Urls without a host yield "".
func Domain(rawURL string) string {
	host := Host(rawURL)
	if host == "" {
		return ""
	}
	return registrable(host)
}

// Host returns the lower case host name of a url. Urls without a scheme are
// treated as http urls.
func Host(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func registrable(host string) string {
	if net.ParseIP(host) != nil {
		return host
	}

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// DomainCache memoizes the registrable domain per host.
type DomainCache struct {
	cache *lru.Cache[string, string]
}

// NewDomainCache creates a cache for up to size hosts.
func NewDomainCache(size int) (*DomainCache, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &DomainCache{cache: cache}, nil
}

// Domain works like the package level Domain.
func (c *DomainCache) Domain(rawURL string) string {
	host := Host(rawURL)
	if host == "" {
		return ""
	}
	if domain, ok := c.cache.Get(host); ok {
		return domain
	}
	domain := registrable(host)
	c.cache.Add(host, domain)
	return domain
}
