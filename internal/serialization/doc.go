// Package serialization stores chunked genotype data in the .gts format.
//
// A .gts file holds every block of one chunked store:
//
//	Format Structure:
//	  [64 bytes: fixed header]
//	    0x00  magic "GTST"
//	    0x04  version (uint32 LE)
//	    0x08  flags (uint32 LE)
//	    0x10  header size (uint64 LE)
//	    0x18  data size (uint64 LE)
//	    0x20  SHA-256 of the data section (32 bytes)
//	  [Header: JSON metadata]
//	  [Block data: raw little-endian bytes in row-major grid order, 64-byte aligned]
//
// Example usage:
//
//	if err := serialization.Save("cohort.gts", store, map[string]string{"source": "sim"}); err != nil {
//	    return err
//	}
//
//	r, err := serialization.Open("cohort.gts", serialization.ReaderOptions{})
//	if err != nil {
//	    return err
//	}
//	defer r.Close()
//	store, err := r.Store()
package serialization
