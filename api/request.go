package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KBNLresearch/frame-generator/corpus"
	"github.com/KBNLresearch/frame-generator/pipeline"
	"github.com/KBNLresearch/frame-generator/types"
	"github.com/KBNLresearch/frame-generator/utils"
	"github.com/oklog/ulid/v2"
)

const (
	DocLength      = 10
	maxTagFields   = 12
	maxMemoryBytes = 32 << 20
)

type upload struct {
	field      string
	dir        string
	extensions []string
}

var uploads = []upload{
	{field: "doc_files[]", dir: corpus.DocsDir, extensions: corpus.DocExtensions},
	{field: "stop_files[]", dir: corpus.StopDir, extensions: corpus.StopExtensions},
	{field: "regex_files[]", dir: corpus.RegexDir, extensions: corpus.RegexExtensions},
}

// Request serves frame generation over HTTP: uploaded files are staged in a temporary input
// directory that is removed when the request ends.
type Request struct {
	Tagger        corpus.Tagger
	Settings      types.Settings
	TempDir       string
	FrameParallel int
	Language      string
}

type errorResponse struct {
	Error string `json:"error"`
}

// FrameEntry holds single-entry maps from term to score.
type FrameEntry struct {
	Keyword map[string]float64   `json:"keyword"`
	Frame   []map[string]float64 `json:"frame"`
}

type FramesResponse struct {
	Frames []FrameEntry `json:"frames"`
}

type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string {
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

func badRequest(err error) error {
	return &requestError{status: http.StatusBadRequest, err: err}
}

func (req *Request) ProcessData(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	logger := makeRequestLogger(r)

	if r.Method != http.MethodPost {
		logger.Err(nil).Int("status", http.StatusMethodNotAllowed).Msg("Only 'POST' method is allowed here")
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "only POST is allowed"})
		return
	}

	response, err := req.generate(r)
	if err != nil {
		status := statusFor(err)
		logger.Err(err).Int("status", status).Msg("Could not generate frames")
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, response)
	logger.Info().Int("status", http.StatusOK).Int("frames", len(response.Frames)).Msg("Finished processing request")
}

func (req *Request) generate(r *http.Request) (response *FramesResponse, err error) {
	defer utils.RecoverWithError(&err)

	if err := r.ParseMultipartForm(maxMemoryBytes); err != nil {
		return nil, badRequest(fmt.Errorf("could not read form: %w", err))
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	settings, err := req.settings(r)
	if err != nil {
		return nil, badRequest(err)
	}

	inputDir, err := os.MkdirTemp(req.TempDir, "frames-"+ulid.Make().String()+"-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(inputDir)

	for _, u := range uploads {
		if err := stageFiles(r.MultipartForm.File[u.field], filepath.Join(inputDir, u.dir), u.extensions); err != nil {
			return nil, err
		}
	}

	result, err := pipeline.Generate(r.Context(), pipeline.Params{
		Settings:      settings,
		InputDir:      inputDir,
		Tagger:        req.Tagger,
		FrameParallel: req.FrameParallel,
		Language:      req.Language,
	})
	if err != nil {
		return nil, err
	}
	return framesResponse(result.Frames), nil
}

func (req *Request) settings(r *http.Request) (types.Settings, error) {
	settings := req.Settings
	settings.GenerationType = types.GenerateFrames
	settings.DocLength = DocLength
	if value := r.FormValue("window_size"); value != "" {
		size, err := strconv.Atoi(value)
		if err != nil {
			return settings, fmt.Errorf("%w: window_size %q", types.ErrInvalidConfig, value)
		}
		settings.WindowSize = size
	}
	settings.WindowDirection = r.FormValue("window_direction")
	settings.KeywordTags = tagFields(r, "ktag")
	settings.FrameTags = tagFields(r, "ftag")
	return settings, settings.Validate()
}

func tagFields(r *http.Request, prefix string) []string {
	tags := []string{}
	for i := 1; i <= maxTagFields; i++ {
		if tag := strings.TrimSpace(r.FormValue(prefix + strconv.Itoa(i))); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

func stageFiles(headers []*multipart.FileHeader, dir string, extensions []string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, header := range headers {
		name := filepath.Base(header.Filename)
		if !corpus.HasExtension(name, extensions) {
			continue
		}
		if err := stageFile(header, filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	return nil
}

func stageFile(header *multipart.FileHeader, path string) error {
	src, err := header.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func framesResponse(frames []types.Frame) *FramesResponse {
	response := &FramesResponse{Frames: make([]FrameEntry, len(frames))}
	for i, frame := range frames {
		entry := FrameEntry{
			Keyword: map[string]float64{frame.Keyword.Term: frame.Keyword.Score},
			Frame:   make([]map[string]float64, len(frame.Context)),
		}
		for j, term := range frame.Context {
			entry.Frame[j] = map[string]float64{term.Term: term.Score}
		}
		response.Frames[i] = entry
	}
	return response
}

func statusFor(err error) int {
	var reqErr *requestError
	switch {
	case errors.As(err, &reqErr):
		return reqErr.status
	case errors.Is(err, types.ErrInvalidConfig), errors.Is(err, types.ErrEmptyCorpus):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.WriteHeader(status)
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	_ = encoder.Encode(body)
}
