package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// photoKey is 6 random hex characters followed by the upload's extension.
func photoKey(filename string) string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return hex[:6] + filepath.Ext(filename)
}

func experienceKey(id int64) string { return fmt.Sprintf("experience:%d", id) }

func reviewsKey(experienceID int64) string { return fmt.Sprintf("reviews:%d", experienceID) }
