// Copyright 2015, Joe Tsai. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE.md file.

//go:build !nocheckpoint

package inflate

// checkpointEnabled reports whether safe points are tracked, which makes
// Checkpoint and RestoreCheckpoint available.
const checkpointEnabled = true
