// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package mcassets

import "strings"

// mirrorPrefixes maps recognized authoritative URL prefixes to their
// mirror equivalents. Order matters: longer, more specific prefixes
// must be checked before their shorter siblings.
var mirrorPrefixes = []struct {
	origin string
	mirror string
}{
	{"https://resources.download.minecraft.net", "https://bmclapi2.bangbang93.com/assets"},
	{"https://libraries.minecraft.net", "https://bmclapi2.bangbang93.com/maven"},
	{"https://launchermeta.mojang.com", "https://bmclapi2.bangbang93.com"},
	{"https://launcher.mojang.com", "https://bmclapi2.bangbang93.com"},
}

// Route maps an origin URL to an ordered candidate URL list: the
// original URL first, followed by its mirror equivalent if the host is
// not already a recognized mirror and a known authoritative prefix
// substitution applies. It performs no network I/O and holds no state.
func Route(originURL string) []string {
	if strings.Contains(originURL, "bmclapi") || strings.Contains(originURL, "mcbbs") {
		return []string{originURL}
	}
	for _, p := range mirrorPrefixes {
		if strings.HasPrefix(originURL, p.origin) {
			return []string{originURL, p.mirror + strings.TrimPrefix(originURL, p.origin)}
		}
	}
	return []string{originURL}
}

// partitionURLs splits a routed URL list into origin and mirror buckets
// by substring match on known mirror host fragments, as used by the
// Planner when converting a NetFile's URL list into a DownloadTask.
func partitionURLs(urls []string) (origin, mirror []string) {
	for _, u := range urls {
		if strings.Contains(u, "bmclapi") || strings.Contains(u, "mcbbs") {
			mirror = append(mirror, u)
		} else {
			origin = append(origin, u)
		}
	}
	return origin, mirror
}
