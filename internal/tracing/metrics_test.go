// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tracing

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internallog "github.com/tombee/parsedbg/internal/log"
)

func TestMetricsServer(t *testing.T) {
	s, err := StartMetricsServer("127.0.0.1:0", internallog.Discard())
	require.NoError(t, err)

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "go_goroutines")

	require.NoError(t, s.Shutdown(context.Background()))

	_, err = http.Get("http://" + s.Addr() + "/metrics")
	assert.Error(t, err)
}

func TestStartMetricsServerBadAddr(t *testing.T) {
	_, err := StartMetricsServer("256.0.0.1:-1", internallog.Discard())
	assert.Error(t, err)
}
