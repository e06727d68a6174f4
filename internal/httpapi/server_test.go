package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/robert-malhotra/go-spectra/spectrum"
)

func newTestServer(t *testing.T) (*Server, *spectrum.Consumer, *spectrum.Consumer) {
	t.Helper()
	r, err := spectrum.NewRegistry()
	require.NoError(t, err)
	r.RegisterDefaults()

	md, _ := r.Prototype("1D")
	md.Set(spectrum.NewInt(spectrum.AttrResolution, 8, 4, 16))
	md.Set(spectrum.NewText(spectrum.AttrName, "hpge"))
	md.Set(spectrum.NewPatternSetting(spectrum.AttrPatternAdd, spectrum.NewPattern(1, 0)))
	oned, err := r.CreateFromPrototype(md)
	require.NoError(t, err)
	oned.PushSpill(spectrum.Spill{Hits: []spectrum.Hit{
		{Channel: 0, Time: 0, Energy: 3 << 8},
		{Channel: 0, Time: 10, Energy: 3 << 8},
		{Channel: 0, Time: 20, Energy: 9 << 8},
	}})

	md, _ = r.Prototype("2D")
	md.Set(spectrum.NewInt(spectrum.AttrResolution, 8, 4, 16))
	md.Set(spectrum.NewPatternSetting(spectrum.AttrPatternAdd, spectrum.NewPattern(1, 0, 1)))
	twod, err := r.CreateFromPrototype(md)
	require.NoError(t, err)
	twod.Append(spectrum.Entry{Coords: []uint16{1, 2}, Count: spectrum.PreciseFromFloat(2.5)})
	twod.Append(spectrum.Entry{Coords: []uint16{7, 7}, Count: spectrum.PreciseFromInt(1)})

	store := NewStore()
	store.Add(oned)
	store.Add(twod)
	return NewServer(store, zaptest.NewLogger(t)), oned, twod
}

func get(t *testing.T, s *Server, target string, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestListSpectra(t *testing.T) {
	s, oned, twod := newTestServer(t)
	rec := get(t, s, "/api/spectra")
	require.Equal(t, http.StatusOK, rec.Code)

	var list []SpectrumSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 2)
	assert.Equal(t, oned.ID().String(), list[0].ID)
	assert.Equal(t, "hpge", list[0].Name)
	assert.Equal(t, "3", list[0].TotalHits)
	assert.Equal(t, twod.ID().String(), list[1].ID)
	assert.Equal(t, 2, list[1].Dimensions)
	assert.True(t, list[1].Ready)
}

func TestMetadataETag(t *testing.T) {
	s, oned, _ := newTestServer(t)
	target := "/api/spectra/" + oned.ID().String() + "/metadata"

	rec := get(t, s, target)
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	md, err := spectrum.MetadataFromJSON(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "1D", md.Type)

	rec = get(t, s, target, "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	oned.PushSpill(spectrum.Spill{Hits: []spectrum.Hit{{Channel: 0, Energy: 1 << 8}}})
	rec = get(t, s, target, "If-None-Match", etag)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEqual(t, etag, rec.Header().Get("ETag"))
}

func TestDataRanges(t *testing.T) {
	s, oned, twod := newTestServer(t)

	tests := []struct {
		name   string
		target string
		status int
		bins   []Bin
	}{
		{
			name:   "full 1D",
			target: "/api/spectra/" + oned.ID().String() + "/data",
			status: http.StatusOK,
			bins:   []Bin{{Coords: []uint16{3}, Count: "2"}, {Coords: []uint16{9}, Count: "1"}},
		},
		{
			name:   "clipped 1D",
			target: "/api/spectra/" + oned.ID().String() + "/data?min=4&max=200",
			status: http.StatusOK,
			bins:   []Bin{{Coords: []uint16{9}, Count: "1"}},
		},
		{
			name:   "per-axis 2D",
			target: "/api/spectra/" + twod.ID().String() + "/data?min=0,0&max=5,5",
			status: http.StatusOK,
			bins:   []Bin{{Coords: []uint16{1, 2}, Count: "2.5"}},
		},
		{
			name:   "too many bounds",
			target: "/api/spectra/" + oned.ID().String() + "/data?min=1,2",
			status: http.StatusBadRequest,
		},
		{
			name:   "inverted",
			target: "/api/spectra/" + oned.ID().String() + "/data?min=9&max=2",
			status: http.StatusBadRequest,
		},
		{
			name:   "not a number",
			target: "/api/spectra/" + oned.ID().String() + "/data?max=x",
			status: http.StatusBadRequest,
		},
		{
			name:   "unknown",
			target: "/api/spectra/nope/data",
			status: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, tt.target)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status != http.StatusOK {
				var e ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &e))
				assert.NotEmpty(t, e.Message)
				return
			}
			var bins []Bin
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bins))
			assert.Equal(t, tt.bins, bins)
		})
	}
}

func TestDataDoesNotDrainBuffer(t *testing.T) {
	s, _, twod := newTestServer(t)
	require.NoError(t, twod.SetAttribute(spectrum.NewBool(spectrum.AttrBuffered, true)))
	twod.PushSpill(spectrum.Spill{Hits: []spectrum.Hit{
		{Channel: 0, Time: 0, Energy: 4 << 8},
		{Channel: 1, Time: 1, Energy: 5 << 8},
	}})

	want := []Bin{
		{Coords: []uint16{1, 2}, Count: "2.5"},
		{Coords: []uint16{4, 5}, Count: "1"},
		{Coords: []uint16{7, 7}, Count: "1"},
	}
	for range 2 {
		rec := get(t, s, "/api/spectra/"+twod.ID().String()+"/data")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var bins []Bin
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bins))
		assert.Equal(t, want, bins)
	}
	assert.Len(t, twod.DataRange(spectrum.FullRange, spectrum.FullRange), 1)
}

func TestAxis(t *testing.T) {
	s, oned, twod := newTestServer(t)
	twod.SetDetectors([]spectrum.Detector{{Name: "a"}, {Name: "b", Calibrations: []spectrum.Calibration{{Bits: 8, Coefficients: []float64{1, 1}}}}})

	rec := get(t, s, "/api/spectra/"+twod.ID().String()+"/axis/1")
	require.Equal(t, http.StatusOK, rec.Code)
	var axis []float64
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &axis))
	require.Len(t, axis, 256)
	assert.Equal(t, 11.0, axis[10])

	rec = get(t, s, "/api/spectra/"+oned.ID().String()+"/axis/1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStoreRemove(t *testing.T) {
	s, oned, twod := newTestServer(t)
	s.store.Remove(oned.ID().String())
	s.store.Remove("missing")
	list := s.store.List()
	require.Len(t, list, 1)
	assert.Equal(t, twod.ID(), list[0].ID())
	_, ok := s.store.Get(oned.ID().String())
	assert.False(t, ok)
}

func TestShutdownBeforeStart(t *testing.T) {
	s, _, _ := newTestServer(t)
	require.NoError(t, s.Shutdown(context.Background()))
	assert.ErrorIs(t, s.Start("127.0.0.1:0", time.Second), http.ErrServerClosed)
}
