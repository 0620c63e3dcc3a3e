package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/SPODhub/mpc3000-snd-player/internal/audio"
	"github.com/SPODhub/mpc3000-snd-player/internal/session"
	"github.com/SPODhub/mpc3000-snd-player/internal/snd"
	"github.com/SPODhub/mpc3000-snd-player/internal/sp12"
	"github.com/SPODhub/mpc3000-snd-player/internal/wav"
)

// PadInfo describes one pad assignment in JSON responses.
type PadInfo struct {
	Bank      string `json:"bank"`
	Pad       int    `json:"pad"`
	Name      string `json:"name"`
	WordCount int    `json:"word_count"`
	Tuning    int    `json:"tuning"`
	Volume    int    `json:"volume"`
}

// AssignmentsResponse is the response body for GET /v1/pads.
type AssignmentsResponse struct {
	Session string    `json:"session"`
	Pads    []PadInfo `json:"pads"`
}

// SessionResponse is the response body for POST /v1/sessions.
type SessionResponse struct {
	SessionID string `json:"session_id"`
}

// StatusResponse reports the outcome of a mutation.
type StatusResponse struct {
	Status string `json:"status"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the response body for GET /v1/healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealthz handles GET /v1/healthz requests.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// handleCreateSession handles POST /v1/sessions requests.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	sess, err := s.sessions.Create()
	if err != nil {
		if errors.Is(err, session.ErrManagerFull) {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(ErrorResponse{Error: "session limit reached"})
			return
		}
		s.logger.Error("failed to create session", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "failed to create session"})
		return
	}

	s.logger.Info("session created", "session_id", sess.ID)
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(SessionResponse{SessionID: sess.ID})
}

// handleUpload handles POST /v1/pads requests. The multipart form carries
// {file, bank, pad, tuning, format, create_disk, session}; the response is
// the converted sample (or disk image) as an octet stream.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	sess, ok := s.resolveSession(w, r.FormValue("session"))
	if !ok {
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	tuning := 0
	if v := r.FormValue("tuning"); v != "" {
		tuning, err = strconv.Atoi(v)
		if err != nil || tuning < -12 || tuning > 12 {
			s.writeError(w, http.StatusBadRequest, "tuning must be an integer between -12 and 12")
			return
		}
	}

	name := r.FormValue("name")
	if name == "" {
		name = strings.TrimSuffix(header.Filename, filepath.Ext(header.Filename))
	}

	src, warnings, err := s.decodeSource(data, header.Filename)
	if err != nil {
		s.writeCoreError(w, err)
		return
	}
	for _, warning := range warnings {
		w.Header().Add("X-Format-Warning", warning)
	}

	format := r.FormValue("format")
	if format == "" {
		format = "sp12"
	}

	switch format {
	case "snd":
		samples, _ := audio.Resample(src, 44100, 0)
		out := snd.Encode(&snd.Sample{
			Name:       name,
			SampleRate: 44100,
			SemiTune:   int8(tuning),
			PCM:        audio.PCM16(samples),
		})
		s.logger.Info("converted sample", "format", "snd", "name", name, "words", len(samples))
		serveBinary(w, name+".snd", out)

	case "sp12":
		bank, err := sp12.ParseBank(r.FormValue("bank"))
		if err != nil {
			s.writeCoreError(w, err)
			return
		}
		pad, err := strconv.Atoi(r.FormValue("pad"))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "pad must be an integer")
			return
		}

		rate := audio.TunedRate(sp12.SampleRate, tuning)
		samples, truncated := audio.Resample(src, rate, sp12.MaxSampleWords)
		if truncated {
			w.Header().Add("X-Format-Warning", "sample truncated to 2.5 seconds")
			s.logger.Warn("sample truncated", "name", name, "words", len(samples))
		}

		meta := sp12.DefaultMetadata()
		meta.Tuning = tuning

		a := sp12.PadAssignment{
			Bank: bank,
			Pad:  pad,
			Name: name,
			Data: audio.PackSP12(samples),
			Meta: meta,
		}
		if err := sess.Builder.AddSample(a); err != nil {
			s.writeCoreError(w, err)
			return
		}

		s.logger.Info("pad assigned",
			"session_id", sess.ID,
			"bank", bank.String(),
			"pad", pad,
			"name", name,
			"words", len(samples),
		)
		s.hub.broadcast(Event{
			Type:    "pad_assigned",
			Session: sess.ID,
			Bank:    bank.String(),
			Pad:     pad,
			Name:    name,
		})

		if parseFlag(r.FormValue("create_disk")) {
			img, err := sess.Builder.CreateDiskImage()
			if err != nil {
				s.writeCoreError(w, err)
				return
			}
			serveBinary(w, "disk.sp12", img)
			return
		}

		out, err := sp12.EncodeSample(a)
		if err != nil {
			s.writeCoreError(w, err)
			return
		}
		serveBinary(w, name+".sp12", out)

	default:
		s.writeError(w, http.StatusBadRequest, "format must be sp12 or snd")
	}
}

// handleListPads handles GET /v1/pads requests.
func (s *Server) handleListPads(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.resolveSession(w, r.URL.Query().Get("session"))
	if !ok {
		return
	}

	assignments := sess.Builder.Assignments()
	pads := make([]PadInfo, 0, len(assignments))
	for _, a := range assignments {
		pads = append(pads, PadInfo{
			Bank:      a.Bank.String(),
			Pad:       a.Pad,
			Name:      a.Name,
			WordCount: a.WordCount(),
			Tuning:    a.Meta.Tuning,
			Volume:    a.Meta.Volume,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AssignmentsResponse{Session: sess.ID, Pads: pads})
}

// handleDeletePad handles DELETE /v1/pads/{bank}/{pad} requests.
func (s *Server) handleDeletePad(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.resolveSession(w, r.URL.Query().Get("session"))
	if !ok {
		return
	}

	bank, err := sp12.ParseBank(r.PathValue("bank"))
	if err != nil {
		s.writeCoreError(w, err)
		return
	}
	pad, err := strconv.Atoi(r.PathValue("pad"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "pad must be an integer")
		return
	}

	if !sess.Builder.RemoveSample(bank, pad) {
		s.writeError(w, http.StatusNotFound, fmt.Sprintf("pad %s%d is not assigned", bank, pad))
		return
	}

	s.logger.Info("pad cleared", "session_id", sess.ID, "bank", bank.String(), "pad", pad)
	s.hub.broadcast(Event{
		Type:    "pad_cleared",
		Session: sess.ID,
		Bank:    bank.String(),
		Pad:     pad,
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{Status: "deleted"})
}

// handleDisk handles GET /v1/disk requests.
func (s *Server) handleDisk(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.resolveSession(w, r.URL.Query().Get("session"))
	if !ok {
		return
	}

	img, err := sess.Builder.CreateDiskImage()
	if err != nil {
		s.writeCoreError(w, err)
		return
	}

	s.logger.Info("disk image built", "session_id", sess.ID, "pads", sess.Builder.Len())
	serveBinary(w, "disk.sp12", img)
}

// resolveSession looks up the session named by id (the default session for
// an empty id), writing an error response on failure.
func (s *Server) resolveSession(w http.ResponseWriter, id string) (*session.Session, bool) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "unknown session")
			return nil, false
		}
		s.writeError(w, http.StatusServiceUnavailable, "session manager unavailable")
		return nil, false
	}
	return sess, true
}

// decodeSource turns an uploaded file into a mono PCM source. WAV input is
// recognized by its RIFF magic; everything else is treated as MP3 when the
// filename says so.
func (s *Server) decodeSource(data []byte, filename string) (audio.Source, []string, error) {
	if len(data) >= 12 && string(data[0:4]) == "RIFF" {
		f, err := wav.Parse(data)
		if err != nil {
			return audio.Source{}, nil, err
		}
		if err := f.Validate(); err != nil {
			return audio.Source{}, nil, err
		}
		return audio.Extract(f), f.Warnings(), nil
	}

	if strings.EqualFold(filepath.Ext(filename), ".mp3") {
		src, err := audio.SourceFromMP3(data)
		return src, nil, err
	}

	return audio.Source{}, nil, fmt.Errorf("%w: unrecognized audio container", wav.ErrFormat)
}

// writeCoreError maps core error kinds onto HTTP statuses.
func (s *Server) writeCoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sp12.ErrValidation), errors.Is(err, wav.ErrValidation):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sp12.ErrFormat), errors.Is(err, wav.ErrFormat), errors.Is(err, snd.ErrFormat), errors.Is(err, audio.ErrDecode):
		s.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, sp12.ErrCapacity):
		s.writeError(w, http.StatusRequestEntityTooLarge, err.Error())
	default:
		s.logger.Error("conversion failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "conversion failed")
	}
}

// writeError writes a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: msg})
}

// serveBinary writes an octet-stream attachment.
func serveBinary(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

// parseFlag interprets a form value as a boolean flag.
func parseFlag(v string) bool {
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
