package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/swanjin/go2/internal/storage"
	"github.com/swanjin/go2/pkg/helloworlddata"
	"github.com/swanjin/go2/pkg/models"
)

const helloLE = "00010002" + "0100000000000000" + "06000000" + "68656c6c6f00" + "0000"

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEncodeCmd(t *testing.T) {
	out, err := run(t, newEncodeCmd(), "-u", "1", "-m", "hello")
	require.NoError(t, err)
	assert.Equal(t, helloLE, strings.TrimSpace(out))
}

func TestEncodeCmd_BadEncoding(t *testing.T) {
	_, err := run(t, newEncodeCmd(), "-e", "xml")
	assert.Error(t, err)
}

func TestDecodeCmd(t *testing.T) {
	out, err := run(t, newDecodeCmd(), helloLE)
	require.NoError(t, err)
	assert.Equal(t, `Msg{userID: 1, message: "hello"} (CDR_LE)`, strings.TrimSpace(out))
}

func TestDecodeCmd_Invalid(t *testing.T) {
	_, err := run(t, newDecodeCmd(), "zz")
	assert.ErrorContains(t, err, "invalid hex")

	_, err = run(t, newDecodeCmd(), "00010000")
	assert.Error(t, err)
}

func TestDescribeCmd(t *testing.T) {
	out, err := run(t, newDescribeCmd())
	require.NoError(t, err)

	assert.Regexp(t, `Type\s+HelloWorldData::Msg`, out)
	assert.Regexp(t, `Keyless\s+true`, out)
	assert.Regexp(t, `Self-contained\s+false`, out)
	assert.Regexp(t, `Max size\s+unbounded`, out)
	assert.Regexp(t, `Type map\s+246 bytes`, out)
	assert.Regexp(t, `Type info\s+100 bytes`, out)
	assert.Regexp(t, `MEMBER ID\s+NAME\s+KEY`, out)
	assert.Regexp(t, `0\s+userID\s+false`, out)
	assert.Regexp(t, `1\s+message\s+false`, out)
	assert.NotContains(t, out, "00000000", "blobs are only dumped on request")
}

func TestDescribeCmd_Blobs(t *testing.T) {
	out, err := run(t, newDescribeCmd(), "--blobs")
	require.NoError(t, err)
	assert.Contains(t, out, "type map:\n00000000")
	assert.Contains(t, out, "type info:\n00000000")
}

func TestDescribeCmd_UnknownType(t *testing.T) {
	_, err := run(t, newDescribeCmd(), "--type", "Nope::Msg")
	assert.ErrorContains(t, err, "HelloWorldData::Msg")
}

func TestPublishCmd_RejectsBadFlags(t *testing.T) {
	_, err := run(t, newPublishCmd(), "--count", "0")
	assert.ErrorContains(t, err, "--count")

	_, err = run(t, newPublishCmd(), "--count", "-3")
	assert.ErrorContains(t, err, "--count")

	_, err = run(t, newPublishCmd(), "--interval", "-1s")
	assert.ErrorContains(t, err, "--interval")
}

func TestHistoryCmd(t *testing.T) {
	dir := t.TempDir()
	repo := storage.NewFileStorage(dir)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"older", "newer"} {
		s := models.NewSample(id, helloworlddata.NewMsg(int64(i), "Hello World"), models.Metadata{
			Topic:     "HelloWorldData_Msg",
			TypeName:  helloworlddata.TypeName,
			Encoding:  "CDR_LE",
			Transport: "nats",
		})
		s.Timestamp = at.Add(time.Duration(i) * time.Minute)
		require.NoError(t, repo.SaveSample(s))
	}

	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "missing.yaml"))
	t.Setenv("GO2_STORAGE_FILE_PATH", dir)
	t.Setenv("GO2_LOGGING_LEVEL", "error")

	out, err := run(t, newHistoryCmd(), "--limit", "1")
	require.NoError(t, err)
	assert.Regexp(t, `TIMESTAMP\s+ID\s+TRANSPORT\s+ENCODING\s+USER ID\s+MESSAGE`, out)
	assert.Regexp(t, `2024-05-01T12:01:00Z\s+newer\s+nats\s+CDR_LE\s+1\s+Hello World`, out)
	assert.NotContains(t, out, "older")
}
