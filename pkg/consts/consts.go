// Package consts holds the fixed numeric and textual constants of the
// duplicity on-disk format that this module reads.
package consts

const (
	// BlockSize is the fixed size, in bytes, of a single cached block.
	// Callers cannot reconfigure it; it matches the unit BlockStream reads
	// and BlockCache stores.
	BlockSize = 64 * 1024

	// SnapshotCacheShare and SignatureCacheShare split a BlockProvider's
	// total cache budget between its two BlockCache instances.
	SnapshotCacheShare  = 0.4
	SignatureCacheShare = 0.6
)

const (
	// CompressedSuffixGZ and CompressedSuffixZ mark a gzip-compressed volume.
	CompressedSuffixGZ = ".gz"
	CompressedSuffixZ  = ".z"

	// EncryptedSuffixGPG and EncryptedSuffixG mark a GPG-encrypted volume.
	EncryptedSuffixGPG = ".gpg"
	EncryptedSuffixG   = ".g"

	// PartialSuffix marks a volume or manifest still being written.
	PartialSuffix = ".part"
)
