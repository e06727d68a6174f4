// Package format encodes and decodes the subset of the HDF5 file format
// used to persist spectra: the version 2 superblock, version 2 object
// headers and the header messages needed for compact groups, contiguous
// datasets and compact attributes.
//
// Object header layout (version 2):
//
//	Offset  Size  Description
//	0       4     Signature ("OHDR")
//	4       1     Version (2)
//	5       1     Flags (bits 0-1: width of the chunk size field)
//	6       var   Optional timestamps and attribute phase values
//	var     1-8   Size of chunk #0
//	var     var   Messages: type(1) size(2) flags(1) [order(2)] body
//	var     4     Checksum (lookup3 over everything before it)
package format
