package models

import "github.com/google/uuid"

// ensureID assigns a fresh UUID when the caller left the key empty, so inserts
// work against databases without gen_random_uuid().
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
