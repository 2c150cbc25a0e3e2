// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package holo provides text formatting primitives for HoloMUSH.
//
// [Fmt] builds [StyledText] values: bold, italic, dim, underlined and
// colored text, plus plain-text lists, key/value pairs, aligned tables,
// headers and separators. A StyledText renders to ANSI escape codes with
// [StyledText.RenderANSI] or to unstyled text with
// [StyledText.RenderPlain]. No Lua binding exposes this package.
package holo
