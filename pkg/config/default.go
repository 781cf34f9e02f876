// Global database config.
package config

// Name of the database.
const DBName = "pagedb"

// Prompt printed by REPL.
const Prompt = DBName + "> "

// The maximum number of pages that can be in the pager's buffer at once.
const MaxPagesInBuffer = 32

// The number of entries a hash table bucket holds before it must split.
const DefaultBucketCapacity = 10

// Return prompt if requested, else "".
func GetPrompt(flag bool) string {
	if flag {
		return Prompt
	}
	return ""
}
