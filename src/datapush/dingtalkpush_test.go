package datapush

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anu-justdidit/airline-dash-app/src/processor"
)

func sampleView() processor.View {
	return processor.View{
		Year: 2012,
		Summary: processor.Summary{
			Total:             1234,
			Satisfied:         617,
			Dissatisfied:      617,
			SatisfiedPct:      50,
			AvgDepartureDelay: processor.SomeFloat(12.34),
		},
		Airlines: []processor.AirlineCount{
			{Airline: "IndiGo", Satisfied: 700, Dissatisfied: 300},
			{Airline: "Vistara", Satisfied: 100, Dissatisfied: 134},
		},
		Split: processor.Split{Year: 2012, Satisfied: 10, Dissatisfied: 5},
	}
}

func TestBuildDigest(t *testing.T) {
	title, text := BuildDigest(sampleView())
	assert.Equal(t, "Airline Satisfaction Digest (≤ 2012)", title)
	assert.Contains(t, text, "**1,234**")
	assert.Contains(t, text, "**50.0%**")
	assert.Contains(t, text, "Avg departure delay: 12.3 min")
	assert.Contains(t, text, "Avg arrival delay: -")
	assert.Contains(t, text, "1. IndiGo: 1,000 (700 satisfied)")
}

func TestPushViewSingleAttempt(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var msg markdownMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "markdown", msg.MsgType)
		w.Write([]byte(`{"errcode":310000,"errmsg":"keywords not in content"}`))
	}))
	defer srv.Close()

	p := NewPusher(srv.URL)
	err := p.PushView(context.Background(), sampleView())
	assert.ErrorContains(t, err, "keywords not in content")
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestPushMarkdownOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"errcode":0,"errmsg":"ok"}`))
	}))
	defer srv.Close()

	p := NewPusher(srv.URL)
	p.Client.Timeout = time.Second
	assert.NoError(t, p.PushMarkdown(context.Background(), "t", "x"))
}

func TestPushMarkdownHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	assert.Error(t, NewPusher(srv.URL).PushMarkdown(context.Background(), "t", "x"))
}
