// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

/*
Package mcassets provides a Go library for acquiring Minecraft game
assets: version manifests, per-version JSON, the client jar, the asset
index and its objects, and library artifacts. It downloads from either
Mojang's origin endpoints or a community mirror, with per-file retry,
mirror failover, ranged parallel chunking for large files, and hash
verification.

# Quick Start

	package main

	import (
		"context"
		"log"

		"rtlauncher/mcassets-core/pkg/mcassets"
	)

	func main() {
		cfg := mcassets.DefaultDownloadConfig()
		tm := mcassets.NewTaskManager()

		task := mcassets.NewDownloadClientTask("1.21", "./minecraft", cfg)
		id := tm.AppendTask(task)
		if err := tm.StartTask(context.Background(), id); err != nil {
			log.Fatal(err)
		}
	}

# Source Routing

Route maps an origin URL to an ordered origin+mirror candidate list:

	urls := mcassets.Route("https://libraries.minecraft.net/com/mojang/authlib/authlib.jar")

# Manifest Loading

The Manifest Loader tries origin and mirror one after the other, in an
order and with time budgets set by the preference, and caches results
by preference:

	loader := mcassets.NewManifestLoader()
	result, err := loader.Execute(ctx, mcassets.PreferMirror, false)

# Downloading

The HighSpeedDownloader performs verification-guarded fetches with
retry, mirror failover, and ranged parallel chunking for files over the
configured large-file threshold:

	dl := mcassets.NewDownloader(cfg)
	err := dl.DownloadFile(ctx, task)

# Progress Events

Batch downloads and planned installs report progress through the shapes
the Task Manager consumes: TaskProgress (item/byte counters) and
TaskProgressUpdate (per-task status transitions).

# Errors

Errors are typed rather than stringly-typed: NetworkError, HTTPError,
ParseError, NotFoundError, VerificationError and TimeoutError cover the
taxonomy described by the engine's failure modes. Callers that need to
branch on failure kind should use errors.As.
*/
package mcassets
