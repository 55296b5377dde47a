// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package gc pools byte buffers to keep garbage collection pressure low on
// hot paths. It wraps [bytebufferpool] behind a small interface so the MCP
// transport pipe, server output rendering, and App Store API response reading
// all draw from one shared pool instead of allocating per message.
//
// [bytebufferpool]: https://github.com/valyala/bytebufferpool
package gc
