//go:build !windows || (js && wasm)

package native

import "github.com/gogpu/syren/driver"

// Open reports driver.ErrUnsupported: Direct3D 12 only exists on Windows.
func Open() (driver.Factory, error) {
	return nil, driver.ErrUnsupported
}
