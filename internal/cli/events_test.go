package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadEvents(t *testing.T) {
	stream := "event: connected\ndata: {\"status\":\"connected\"}\n\n" +
		": keepalive\n\n" +
		"event: state\ndata: {\"version\":2}\n\n" +
		"event: closed\ndata: {}\n\n" +
		"event: state\ndata: {\"version\":3}\n\n"

	var got []string
	err := readEvents(strings.NewReader(stream), func(event, data string) bool {
		got = append(got, event+"="+data)
		return event != "closed"
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`connected={"status":"connected"}`,
		`state={"version":2}`,
		`closed={}`,
	}, got)
}

func TestReadEventsJoinsMultilineData(t *testing.T) {
	var data string
	err := readEvents(strings.NewReader("event: x\ndata: a\ndata: b\n\n"), func(_, d string) bool {
		data = d
		return true
	})
	require.NoError(t, err)
	assert.Equal(t, "a\nb", data)
}

func TestPrintStateEvent(t *testing.T) {
	var buf bytes.Buffer
	printEvent(&buf, "state", `{"play_state":"stopped","auth_prompt_visible":true,"pending_play_intent":true,"version":4}`, false)

	assert.Contains(t, buf.String(), "state v4: stopped [prompt, pending-play]")
}

func TestPrintEventJSON(t *testing.T) {
	var buf bytes.Buffer
	printEvent(&buf, "closed", "{}", true)

	assert.Contains(t, buf.String(), `"event":"closed"`)
}
