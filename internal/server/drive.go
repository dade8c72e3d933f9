package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/abhisek/studentai/internal/drive"
)

type driveRequest struct {
	FileID      flexID   `json:"file_id"`
	Link        string   `json:"link"`
	Semester    flexInt  `json:"semester"`
	Degree      string   `json:"degree"`
	Subject     string   `json:"subject"`
	Filename    string   `json:"filename"`
	Description string   `json:"description"`
	Query       string   `json:"query"`
	Subjects    []string `json:"subjects"`
}

func (r driveRequest) placement() drive.Placement {
	return drive.Placement{
		Semester:    int(r.Semester),
		Degree:      r.Degree,
		Subject:     r.Subject,
		Description: r.Description,
	}
}

// uploadFile takes multipart fields file, semester, degree, subject,
// description and use_cloud.
func (s *Server) uploadFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		s.fail(c, drive.ErrMissingFile)
		return
	}
	if err != nil {
		s.failForm(c, err)
		return
	}
	sem, err := strconv.Atoi(strings.TrimSpace(c.PostForm("semester")))
	if err != nil {
		s.fail(c, drive.ErrInvalidSemester)
		return
	}
	f, err := fh.Open()
	if err != nil {
		s.fail(c, err)
		return
	}
	defer f.Close()

	up, err := s.Drive.Upload(c.Request.Context(), drive.UploadInput{
		Placement: drive.Placement{
			Semester:    sem,
			Degree:      c.PostForm("degree"),
			Subject:     c.PostForm("subject"),
			Description: c.PostForm("description"),
		},
		Filename: fh.Filename,
		Body:     f,
		UseCloud: strings.EqualFold(c.DefaultPostForm("use_cloud", "false"), "true"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "File uploaded successfully!", "file_id": up.ID, "url": up.URL})
}

func (s *Server) addLink(c *gin.Context) {
	var req driveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	up, err := s.Drive.AddLink(c.Request.Context(), drive.LinkInput{
		Placement: req.placement(),
		URL:       req.Link,
		Filename:  req.Filename,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Link added successfully!", "file_id": up.ID})
}

func (s *Server) listFiles(c *gin.Context) {
	var req driveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	files, err := s.Drive.List(drive.Filter{Semester: int(req.Semester), Degree: req.Degree, Subject: req.Subject})
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"files": files})
}

func (s *Server) deleteFile(c *gin.Context) {
	var req driveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	if err := s.Drive.Delete(c.Request.Context(), string(req.FileID)); err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "File deleted successfully!"})
}

func (s *Server) predefinedLink(c *gin.Context) {
	var req driveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	link, err := s.Drive.PredefinedLink(int(req.Semester), req.Subject)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"link": link})
}

func (s *Server) fileInfo(c *gin.Context) {
	var req driveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	f, err := s.Drive.Info(string(req.FileID))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"file": f})
}

func (s *Server) openFile(c *gin.Context) {
	var req driveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	o, err := s.Drive.Open(string(req.FileID))
	if err != nil {
		s.fail(c, err)
		return
	}
	payload := gin.H{"message": "Opening file...", "is_external": o.IsExternal}
	if o.IsExternal {
		payload["url"] = o.URL
	} else {
		payload["file_id"] = o.FileID
	}
	ok(c, payload)
}

func (s *Server) searchFiles(c *gin.Context) {
	var req driveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	files, err := s.Drive.Search(req.Query)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"files": files, "count": len(files)})
}

func (s *Server) studyPlan(c *gin.Context) {
	var req driveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	plan, err := s.Drive.StudyPlan(c.Request.Context(), int(req.Semester), req.Degree, req.Subjects)
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"study_plan": plan})
}

func (s *Server) analyzeFile(c *gin.Context) {
	var req driveRequest
	if !s.bindJSON(c, &req) {
		return
	}
	analysis, err := s.Drive.Analyze(c.Request.Context(), string(req.FileID))
	if err != nil {
		s.fail(c, err)
		return
	}
	ok(c, gin.H{"analysis": analysis})
}

// downloadFile streams a local upload as an attachment. Unlike the JSON
// routes, a missing file is a 404.
func (s *Server) downloadFile(c *gin.Context) {
	id := c.Param("id")
	f, err := s.Drive.Info(id)
	if err == nil {
		var path string
		if path, err = s.Drive.LocalPath(id); err == nil {
			c.FileAttachment(path, f.Filename)
			return
		}
	}
	if errors.Is(err, drive.ErrFileNotFound) || errors.Is(err, drive.ErrLocalFileMissing) || errors.Is(err, drive.ErrNotLocal) {
		_, msg := classify(err)
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": msg})
		return
	}
	s.fail(c, err)
}
