//go:build (linux || darwin) && (amd64 || arm64)

// File: camera/pvapi/attr.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pvapi

import (
	"strconv"

	"golang.org/x/sys/unix"
)

// Uint32 reads an integer attribute.
func (c *Camera) Uint32(name string) (uint32, error) {
	var v uint32
	err := check("PvAttrUint32Get "+name, pvAttrUint32Get(c.handle, name, &v))
	return v, err
}

// SetUint32 writes an integer attribute.
func (c *Camera) SetUint32(name string, v uint32) error {
	return check("PvAttrUint32Set "+name, pvAttrUint32Set(c.handle, name, v))
}

// Float32 reads a float attribute.
func (c *Camera) Float32(name string) (float32, error) {
	var v float32
	err := check("PvAttrFloat32Get "+name, pvAttrFloat32Get(c.handle, name, &v))
	return v, err
}

// SetFloat32 writes a float attribute.
func (c *Camera) SetFloat32(name string, v float32) error {
	return check("PvAttrFloat32Set "+name, pvAttrFloat32Set(c.handle, name, v))
}

// Enum reads an enumeration attribute.
func (c *Camera) Enum(name string) (string, error) {
	var (
		buf    [64]byte
		filled uint64
	)
	if err := check("PvAttrEnumGet "+name, pvAttrEnumGet(c.handle, name, &buf[0], uint64(len(buf)), &filled)); err != nil {
		return "", err
	}
	return unix.ByteSliceToString(buf[:]), nil
}

// SetEnum writes an enumeration attribute.
func (c *Camera) SetEnum(name, value string) error {
	return check("PvAttrEnumSet "+name, pvAttrEnumSet(c.handle, name, value))
}

// Command runs a command attribute such as AcquisitionStart.
func (c *Camera) Command(name string) error {
	return check("PvCommandRun "+name, pvCommandRun(c.handle, name))
}

func formatUID(uid uint64) string { return strconv.FormatUint(uid, 10) }
