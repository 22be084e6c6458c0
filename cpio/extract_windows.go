//go:build windows

// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.
package cpio

import (
	"errors"
)

func makeFifo(string) error {
	return errors.New("fifos not supported on this platform")
}

func makeDevice(*Header, string) error {
	return errors.New("special devices not supported on this platform")
}
