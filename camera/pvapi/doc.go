// Package pvapi
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Prosilica GigE camera producer backed by the vendor PvAPI shared library.
// The library is loaded at runtime without cgo. Frame descriptors live in
// anonymous mappings; the driver callback finds its camera through an
// integer handle kept in the descriptor context and completes the slot
// with the driver status mapped to api.Status.
//
// The library is looked up in $FRAMEQ_PVAPI_LIB first, then the loader
// path and common install prefixes.
package pvapi
