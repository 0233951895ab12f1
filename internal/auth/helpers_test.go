// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 MindLap Contributors

package auth_test

import (
	"io"
	"log/slog"
	"strconv"
)

func newJSONLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, nil))
}

func jsonInt(v int64) string {
	return strconv.FormatInt(v, 10)
}
