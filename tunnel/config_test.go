package tunnel

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	var file = filepath.Join(t.TempDir(), CONFIG_NAME)
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
	return file
}

func TestLoadConfig(t *testing.T) {
	file := writeConfig(t, `
[streamchat]
Transport = kcp
KcpMode   = turbo
Listen    = 127.0.0.1
Verbose   = 3
Trace     = false
`)
	cc, err := NewConfigContextFromFile(file)
	require.NoError(t, err)
	assert.Equal(t, file, cc.Filepath())
	assert.Equal(t, 3, cc.LogV())
	assert.False(t, cc.Trace())

	tr, err := cc.ServerTransport(9100)
	require.NoError(t, err)
	assert.Equal(t, "kcp://127.0.0.1:9100/turbo", tr.String())
	assert.True(t, tr.asServer)
}

func TestLoadConfigDefaults(t *testing.T) {
	// missing keys keep their defaults
	file := writeConfig(t, "[streamchat]\nVerbose = 2\n")
	cc, err := NewConfigContextFromFile(file)
	require.NoError(t, err)
	assert.Equal(t, 2, cc.LogV())
	assert.True(t, cc.Trace())

	tr, err := cc.ClientTransport("10.0.0.1", 9000)
	require.NoError(t, err)
	assert.Equal(t, "tcp://10.0.0.1:9000", tr.String())

	cc.UseKcp()
	cc.SetTrace(false)
	cc.SetVerbose(4)
	tr, err = cc.ClientTransport("10.0.0.1", 9000)
	require.NoError(t, err)
	assert.Equal(t, "kcp://10.0.0.1:9000/fast", tr.String())
	assert.False(t, cc.Trace())
	assert.Equal(t, 4, cc.LogV())
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := NewConfigContextFromFile(filepath.Join(t.TempDir(), "absent.ini"))
	assert.True(t, errors.Is(err, FILE_NOT_FOUND), "%v", err)

	_, err = NewConfigContextFromFile(writeConfig(t, "[other]\nVerbose = 1\n"))
	assert.True(t, errors.Is(err, CONF_MISS), "%v", err)

	_, err = NewConfigContextFromFile(writeConfig(t, "[streamchat]\nTransport = udp\n"))
	assert.True(t, errors.Is(err, CONF_ERROR), "%v", err)

	_, err = NewConfigContextFromFile(writeConfig(t, "[streamchat]\nTransport = kcp\nKcpMode = warp\n"))
	assert.True(t, errors.Is(err, CONF_ERROR), "%v", err)
}

func TestCreateConfigTemplate(t *testing.T) {
	var file = filepath.Join(t.TempDir(), CONFIG_NAME)
	require.NoError(t, CreateConfigTemplate(file))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[streamchat]")
	assert.Contains(t, string(data), "Transport")

	// the template loads back to the defaults
	cc, err := NewConfigContextFromFile(file)
	require.NoError(t, err)
	assert.Equal(t, 1, cc.LogV())
	assert.True(t, cc.Trace())
	tr, err := cc.ServerTransport(9000)
	require.NoError(t, err)
	assert.Equal(t, "tcp://0.0.0.0:9000", tr.String())
}

func TestSetFieldsDefaultValue(t *testing.T) {
	var conf = new(chatConf)
	setFieldsDefaultValue(conf)
	assert.Equal(t, "tcp", conf.Transport)
	assert.Equal(t, "fast", conf.KcpMode)
	assert.Equal(t, "0.0.0.0", conf.Listen)
	assert.Equal(t, 1, conf.Verbose)
	assert.True(t, conf.Trace)
	assert.NoError(t, conf.validate())
}
