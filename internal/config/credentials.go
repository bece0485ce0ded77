package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrMissingCredentials means no API key is configured.
	ErrMissingCredentials = errors.New("openweathermap api key is not configured")

	// ErrMissingDirectoryFile means the city list is absent.
	ErrMissingDirectoryFile = errors.New("city list file is missing")
)

// APIKey returns the configured key: the environment first, then the first
// line of the key file.
func (c *AppConfig) APIKey() (string, error) {
	if key := strings.TrimSpace(c.OpenWeatherAPIKey); key != "" {
		return key, nil
	}

	data, err := os.ReadFile(c.APIKeyFile)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: set OPENWEATHER_API_KEY or write the key to %s", ErrMissingCredentials, c.APIKeyFile)
	}
	if err != nil {
		return "", fmt.Errorf("read api key: %w", err)
	}

	line, _, _ := strings.Cut(string(data), "\n")
	key := strings.TrimSpace(line)
	if key == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrMissingCredentials, c.APIKeyFile)
	}
	return key, nil
}

// SetupAPIKey prompts on out until a non-empty key is read from in, then
// stores it in path. Running out of input is ErrMissingCredentials.
func SetupAPIKey(path string, in io.Reader, out io.Writer) (string, error) {
	scanner := bufio.NewScanner(in)
	prompt := "Enter openweathermap api key:"

	var key string
	for key == "" {
		fmt.Fprintln(out, prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("read api key: %w", err)
			}
			return "", ErrMissingCredentials
		}
		key = strings.TrimSpace(scanner.Text())
		prompt = "Please enter your api key for openweathermap:"
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("create data dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(key+"\n"), 0o600); err != nil {
		return "", fmt.Errorf("write api key: %w", err)
	}
	return key, nil
}

// MissingCityList wraps a failure to open the city list with download
// guidance.
func MissingCityList(path string) error {
	return fmt.Errorf("%w: download city.list.json.gz from http://bulk.openweathermap.org/sample/, "+
		"unpack it to %s or set WTW_CITY_LIST", ErrMissingDirectoryFile, path)
}
