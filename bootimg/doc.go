// SPDX-License-Identifier: BSD-3-Clause
// Copyright (c) 2026, The bootimg Authors.
// Licensed under the BSD-3-Clause License (the "License").
// You may not use this file except in compliance with the License.

/*
Package bootimg unpacks, modifies and repacks boot images.

Two container formats are supported, chosen by the image's leading magic
bytes: the structured Android boot image, delegated to the AOSP mkbootimg
tools, and the simple length-framed KRNL container used by Rockchip
loaders.  Unpack splits an image into a work directory and extracts its
ramdisk into a plain file tree; Pack reverses the process, restoring the
recorded member attributes; Repack chains the two with patch application
and file overlays in between.
*/
package bootimg
