// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the data structures shared by the paperxai stages:
// papers, report configuration and results, and pipeline settings.
package types
