// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TLSFiles holds the resolved certificate and key paths for HTTPS.
type TLSFiles struct {
	Cert string
	Key  string
}

// ResolveTLS checks the server's tls_cert and tls_key settings. It returns
// nil when neither is set, and an error when only one is set or a file is
// missing. A leading ~ is expanded to the home directory.
func ResolveTLS(cert, key string) (*TLSFiles, error) {
	if cert == "" && key == "" {
		return nil, nil
	}
	if cert == "" || key == "" {
		return nil, fmt.Errorf("both tls_cert and tls_key must be specified (got cert=%q, key=%q)", cert, key)
	}

	files := &TLSFiles{Cert: homePath(cert), Key: homePath(key)}
	for _, f := range []struct{ name, path string }{{"tls_cert", files.Cert}, {"tls_key", files.Key}} {
		name, path := f.name, f.path
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%s file not found: %s", name, path)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("%s is a directory: %s", name, path)
		}
	}
	return files, nil
}

func homePath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
