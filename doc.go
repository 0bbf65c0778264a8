// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sharpmip is a container for the Sharp memory-in-pixel LCD packages.
//
// sharpmem is the driver, mipsim an emulated panel to run it on a host and
// cmd/mipclock a clock showing both.
package sharpmip
