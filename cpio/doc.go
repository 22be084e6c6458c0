// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

/*
Package cpio reads and writes SVR4 (New ASCII, "newc") cpio archives, the
record format boot image ramdisks are stored in.

Unlike a plain streaming codec, a File keeps track of every member's header
and payload offset as it scans, so archives can be listed, inspected and
extracted to a filesystem tree with full ownership, permission, timestamp,
device-node and hardlink fidelity.  Archives may be transparently layered
under gzip, bzip2 or xz compression via the compression package.

See the CPIO man page: https://www.freebsd.org/cgi/man.cgi?query=cpio&sektion=5
*/
package cpio
