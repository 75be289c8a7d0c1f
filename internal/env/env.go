package env

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Load reads a .env file into the process environment. Variables already set
// win over the file, and a missing file is not an error.
func Load(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if err != nil && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func GetString(key, fallback string) string {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	return val
}

func GetInt(key string, fallback int) int {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	valInt, err := strconv.Atoi(val)

	if err != nil {
		return fallback
	}
	return valInt
}

func GetBool(key string, fallback bool) bool {
	val, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}

	valBool, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return fallback
	}
	return valBool
}
