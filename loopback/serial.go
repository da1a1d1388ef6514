// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package loopback

import "code.hybscloud.com/atomix"

// serials is the global monotonic counter for stack serials.
// Handles embed the serial of the stack that issued them.
var serials atomix.Uint32

// nextSerial returns the next monotonically increasing stack serial.
func nextSerial() uint32 {
	return serials.Add(1)
}
