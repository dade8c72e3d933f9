// Package drive is the course file catalog: uploaded files (on local disk
// or in a cloud bucket) and external links, organised by semester, degree
// and subject.
package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/abhisek/studentai/internal/filestore"
	"github.com/abhisek/studentai/internal/llm"
	"github.com/abhisek/studentai/internal/logger"
)

var (
	ErrFileNotFound      = errors.New("file not found")
	ErrInvalidURL        = errors.New("invalid URL")
	ErrNoPredefinedLink  = errors.New("no predefined link found")
	ErrLocalFileMissing  = errors.New("local file not found")
	ErrNotLocal          = errors.New("file is not stored locally")
	ErrInvalidSemester   = errors.New("semester must be a positive number")
	ErrMissingFile       = errors.New("no file provided")
	ErrCloudDisabled     = errors.New("cloud storage is not configured")
	ErrCannotAnalyzeLink = errors.New("cannot analyze external links")
	ErrCannotAnalyze     = errors.New("cannot analyze cloud files directly, download first")
	ErrNotText           = errors.New("cannot read file (not a text file or encoding issue)")
)

// FileRecord is one catalog entry as stored in drive_database.json. For
// local files URL is the path on disk.
type FileRecord struct {
	Filename    string `json:"filename"`
	URL         string `json:"url"`
	Semester    int    `json:"semester"`
	Degree      string `json:"degree"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	UploadedAt  string `json:"uploaded_at,omitempty"`
	AddedAt     string `json:"added_at,omitempty"`
	FileType    string `json:"file_type"`
	Size        int64  `json:"size"`
	IsCloud     bool   `json:"is_cloud"`
	IsExternal  bool   `json:"is_external"`
	BlobKey     string `json:"blob_key,omitempty"`
}

// File is a record with its id.
type File struct {
	ID string `json:"id"`
	FileRecord
}

// Paths locates the catalog file and the local file tree.
type Paths struct {
	Catalog string
	Files   string
}

// Service manages the catalog.
type Service struct {
	catalog  *filestore.Collection[FileRecord]
	root     string
	blobs    BlobStore
	links    Links
	provider llm.Provider
	log      *logger.Logger
	now      func() time.Time
}

// NewService creates the drive service. blobs may be nil, in which case
// only local uploads are accepted.
func NewService(paths Paths, links Links, blobs BlobStore, provider llm.Provider, ids filestore.IDAllocator, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	log = log.With("service", "drive")
	if links == nil {
		links = Links{}
	}
	return &Service{
		catalog:  filestore.NewCollection[FileRecord](paths.Catalog, ids, log),
		root:     paths.Files,
		blobs:    blobs,
		links:    links,
		provider: provider,
		log:      log,
		now:      time.Now,
	}
}

// CloudEnabled reports whether uploads can go to the bucket.
func (s *Service) CloudEnabled() bool { return s.blobs != nil }

// Placement says where a file belongs in the catalog.
type Placement struct {
	Semester    int
	Degree      string
	Subject     string
	Description string
}

func (p Placement) validate() error {
	if p.Semester < 1 {
		return ErrInvalidSemester
	}
	return nil
}

// UploadInput is a file to store.
type UploadInput struct {
	Placement
	Filename string
	Body     io.Reader
	UseCloud bool
}

// Uploaded is the result of Upload and AddLink.
type Uploaded struct {
	ID  string `json:"file_id"`
	URL string `json:"url"`
}

// Upload stores the file locally or in the bucket and records it.
func (s *Service) Upload(ctx context.Context, in UploadInput) (*Uploaded, error) {
	name := filepath.Base(strings.TrimSpace(in.Filename))
	if in.Body == nil || name == "." || name == string(filepath.Separator) {
		return nil, ErrMissingFile
	}
	if err := in.validate(); err != nil {
		return nil, err
	}

	rec := FileRecord{
		Filename:    name,
		Semester:    in.Semester,
		Degree:      strings.ToUpper(in.Degree),
		Subject:     strings.ToUpper(in.Subject),
		Description: in.Description,
		UploadedAt:  s.now().Format(time.RFC3339),
		FileType:    fileType(name),
	}

	var err error
	if in.UseCloud {
		err = s.uploadCloud(ctx, in, &rec)
	} else {
		err = s.uploadLocal(in, &rec)
	}
	if err != nil {
		return nil, err
	}

	id, err := s.catalog.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("record upload: %w", err)
	}
	s.log.Info("file uploaded", "id", id, "filename", name, "cloud", rec.IsCloud, "size", rec.Size)
	return &Uploaded{ID: id, URL: rec.URL}, nil
}

func (s *Service) uploadCloud(ctx context.Context, in UploadInput, rec *FileRecord) error {
	if s.blobs == nil {
		return ErrCloudDisabled
	}
	key := fmt.Sprintf("student_ai/%s/%s/%s/%s",
		SafeName(strconv.Itoa(in.Semester)), SafeName(in.Degree), SafeName(in.Subject),
		storedName(rec.Filename))

	cr := &countingReader{r: in.Body}
	if err := s.blobs.Upload(ctx, key, cr); err != nil {
		return fmt.Errorf("cloud upload: %w", err)
	}
	rec.URL = s.blobs.PublicURL(key)
	rec.BlobKey = key
	rec.Size = cr.n
	rec.IsCloud = true
	return nil
}

func (s *Service) uploadLocal(in UploadInput, rec *FileRecord) error {
	dir := filepath.Join(s.root, strconv.Itoa(in.Semester), SafeName(in.Degree), SafeName(in.Subject))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}
	dest := filepath.Join(dir, storedName(rec.Filename))

	tmp := dest + "." + uuid.NewString() + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create upload file: %w", err)
	}
	n, err := io.Copy(f, in.Body)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write upload: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("store upload: %w", err)
	}

	rec.URL = dest
	rec.Size = n
	return nil
}

// storedName gives an upload a unique name on disk or in the bucket, so
// same-named uploads never share bytes. The catalog keeps the original.
func storedName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	return SafeName(stem) + "_" + uuid.NewString()[:8] + ext
}

// LinkInput is an external resource to catalog.
type LinkInput struct {
	Placement
	URL      string
	Filename string
}

// AddLink records an external URL. The link needs a scheme and a host.
func (s *Service) AddLink(ctx context.Context, in LinkInput) (*Uploaded, error) {
	u, err := url.Parse(strings.TrimSpace(in.URL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, ErrInvalidURL
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	subject := strings.ToUpper(in.Subject)
	name := strings.TrimSpace(in.Filename)
	if name == "" {
		name = subject + " - External Resource"
	}

	rec := FileRecord{
		Filename:    name,
		URL:         u.String(),
		Semester:    in.Semester,
		Degree:      strings.ToUpper(in.Degree),
		Subject:     subject,
		Description: in.Description,
		AddedAt:     s.now().Format(time.RFC3339),
		FileType:    "link",
		IsExternal:  true,
	}
	id, err := s.catalog.Insert(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("record link: %w", err)
	}
	s.log.Info("link added", "id", id, "subject", subject)
	return &Uploaded{ID: id, URL: rec.URL}, nil
}

// Filter narrows List. Zero fields match everything.
type Filter struct {
	Semester int
	Degree   string
	Subject  string
}

func (f Filter) match(r FileRecord) bool {
	if f.Semester != 0 && r.Semester != f.Semester {
		return false
	}
	if f.Degree != "" && !strings.EqualFold(r.Degree, f.Degree) {
		return false
	}
	if f.Subject != "" && !strings.EqualFold(r.Subject, f.Subject) {
		return false
	}
	return true
}

// List returns catalog entries in id order.
func (s *Service) List(f Filter) ([]File, error) {
	return s.collect(f.match)
}

// Search matches query against filename, description, subject and degree,
// ignoring case.
func (s *Service) Search(query string) ([]File, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	return s.collect(func(r FileRecord) bool {
		for _, field := range []string{r.Filename, r.Description, r.Subject, r.Degree} {
			if strings.Contains(strings.ToLower(field), q) {
				return true
			}
		}
		return false
	})
}

func (s *Service) collect(keep func(FileRecord) bool) ([]File, error) {
	entries, err := s.catalog.List()
	if err != nil {
		return nil, err
	}
	files := []File{}
	for _, e := range entries {
		if keep(e.Record) {
			files = append(files, File{ID: e.ID, FileRecord: e.Record})
		}
	}
	return files, nil
}

// Info returns one entry.
func (s *Service) Info(id string) (*File, error) {
	rec, err := s.catalog.Get(id)
	if errors.Is(err, filestore.ErrNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	return &File{ID: id, FileRecord: rec}, nil
}

// Delete removes the entry. Failing to remove the stored bytes is logged
// and does not keep the entry.
func (s *Service) Delete(ctx context.Context, id string) error {
	rec, err := s.catalog.Delete(id)
	if errors.Is(err, filestore.ErrNotFound) {
		return ErrFileNotFound
	}
	if err != nil {
		return err
	}

	switch {
	case rec.IsExternal:
	case rec.IsCloud:
		if s.blobs == nil || rec.BlobKey == "" {
			s.log.Warn("cloud file left in bucket", "id", id, "url", rec.URL)
		} else if err := s.blobs.Delete(ctx, rec.BlobKey); err != nil {
			s.log.Warn("could not delete from cloud", "id", id, "error", err)
		}
	default:
		if err := os.Remove(rec.URL); err != nil && !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("could not delete local file", "id", id, "error", err)
		}
	}
	s.log.Info("file deleted", "id", id)
	return nil
}

// LocalPath returns the on-disk path of a local upload.
func (s *Service) LocalPath(id string) (string, error) {
	f, err := s.Info(id)
	if err != nil {
		return "", err
	}
	if f.IsCloud || f.IsExternal {
		return "", ErrNotLocal
	}
	if _, err := os.Stat(f.URL); err != nil {
		return "", ErrLocalFileMissing
	}
	return f.URL, nil
}

// Opened tells a client how to open an entry: follow URL, or download
// the local file by id.
type Opened struct {
	FileID     string `json:"file_id,omitempty"`
	URL        string `json:"url,omitempty"`
	IsExternal bool   `json:"is_external"`
}

func (s *Service) Open(id string) (*Opened, error) {
	f, err := s.Info(id)
	if err != nil {
		return nil, err
	}
	if f.IsCloud || f.IsExternal {
		return &Opened{URL: f.URL, IsExternal: true}, nil
	}
	if _, err := os.Stat(f.URL); err != nil {
		return nil, ErrLocalFileMissing
	}
	return &Opened{FileID: id}, nil
}

// PredefinedLink returns the department folder for a course.
func (s *Service) PredefinedLink(semester int, subject string) (string, error) {
	link, ok := s.links.Lookup(semester, subject)
	if !ok {
		return "", ErrNoPredefinedLink
	}
	return link, nil
}

// SafeName keeps letters and digits, turns every other run of characters
// into one underscore and trims underscores from both ends.
func SafeName(s string) string {
	var b strings.Builder
	under := false
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			under = false
			continue
		}
		if !under {
			b.WriteByte('_')
			under = true
		}
	}
	return strings.Trim(b.String(), "_")
}

func fileType(name string) string {
	if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
		return strings.ToLower(ext)
	}
	return "unknown"
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
