package handlers

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bazaar-market/apiserver/internal/services"
	"github.com/bazaar-market/apiserver/types"
)

const (
	maxMultipartMemory = 8 << 20
	maxImageBytes      = 16 << 20

	formFieldName          = "name"
	formFieldDescription   = "description"
	formFieldPrice         = "price"
	formFieldContact       = "contact"
	formFieldContactType   = "contact_type_id"
	formFieldContactBackup = "contact_backup"
	formFieldLocation      = "location"
	formFieldCategory      = "category_id"
	formFieldImage         = "image"
)

// PostHandler provides HTTP handlers for listings.
type PostHandler struct {
	postService    *services.PostService
	commentService *services.CommentService
	pageSize       int
}

func NewPostHandler(postService *services.PostService, commentService *services.CommentService, pageSize int) *PostHandler {
	if pageSize < 1 {
		pageSize = 20
	}
	return &PostHandler{
		postService:    postService,
		commentService: commentService,
		pageSize:       pageSize,
	}
}

// PostRouter registers listing routes on the given router.
func PostRouter(r chi.Router, postService *services.PostService, commentService *services.CommentService, pageSize int) {
	handler := NewPostHandler(postService, commentService, pageSize)

	r.Get("/", handler.ListPosts)
	r.Post("/", handler.CreatePost)
	r.Get("/category/{categoryID}", handler.ListPostsByCategory)
	r.Route("/{postID}", func(r chi.Router) {
		r.Get("/", handler.GetPost)
		r.Put("/", handler.UpdatePost)
		r.Delete("/", handler.DeletePost)
		r.Put("/image", handler.ReplaceImage)
		r.Get("/image", handler.GetImage)
		r.Post("/report", handler.ReportPost)
		r.Get("/comments", handler.ListComments)
		r.With(RequireIdentity).Post("/comments", handler.CreateComment)
	})
}

// PostResponse is a listing with its image re-encoded as an inline data URI.
type PostResponse struct {
	types.Post
	Image string `json:"image,omitempty"`
}

func toPostResponse(post types.Post) PostResponse {
	resp := PostResponse{Post: post}
	if len(post.Image) > 0 {
		contentType := post.ImageContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		resp.Image = fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(post.Image))
	}
	return resp
}

// PostListResponse is the paginated list response payload.
type PostListResponse struct {
	Items []PostResponse `json:"items"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
	Total int            `json:"total"`
}

func toPostListResponse(posts []types.Post, page, limit, total int) PostListResponse {
	items := make([]PostResponse, 0, len(posts))
	for _, post := range posts {
		items = append(items, toPostResponse(post))
	}
	return PostListResponse{Items: items, Page: page, Limit: limit, Total: total}
}

func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	page, limit, offset, err := parsePagination(r, h.pageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	posts, total, err := h.postService.List(r.Context(), offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}
	writeJSON(w, http.StatusOK, toPostListResponse(posts, page, limit, total))
}

func (h *PostHandler) ListPostsByCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := parseIDParam(chi.URLParam(r, "categoryID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid category id")
		return
	}

	page, limit, offset, err := parsePagination(r, h.pageSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	posts, total, err := h.postService.ListByCategory(r.Context(), categoryID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list posts")
		return
	}
	writeJSON(w, http.StatusOK, toPostListResponse(posts, page, limit, total))
}

func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.postService.GetForActor(r.Context(), id, claimsFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(post))
}

// CreatePost accepts a multipart form carrying the listing fields and the
// image file.
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	input, err := parsePostForm(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.postService.Create(r.Context(), input, claimsFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPostResponse(created))
}

// UpdatePost applies a partial update from a JSON body. Unknown keys are
// rejected; only allow-listed fields can change. Image replacement has its
// own multipart endpoint.
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var update types.PostUpdate
	if err := decodeStrict(r, &update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.postService.Update(r.Context(), id, update, claimsFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(updated))
}

func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	deleted, err := h.postService.Delete(r.Context(), id, claimsFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(deleted))
}

// ReplaceImage swaps the listing image from a multipart form.
func (h *PostHandler) ReplaceImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	image, contentType, err := parseImageFile(r.MultipartForm)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	update := types.PostUpdate{Image: image, ImageContentType: &contentType}
	updated, err := h.postService.Update(r.Context(), id, update, claimsFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(updated))
}

// GetImage streams the stored image bytes with their stored content type.
func (h *PostHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.postService.GetForActor(r.Context(), id, claimsFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if len(post.Image) == 0 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	contentType := post.ImageContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(post.Image)))
	_, _ = w.Write(post.Image)
}

func (h *PostHandler) ReportPost(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	post, err := h.postService.Report(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPostResponse(post))
}

type CreateCommentRequest struct {
	Comment string `json:"comment"`
}

func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req CreateCommentRequest
	if err := decodeStrict(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	comment, err := h.commentService.Create(r.Context(), id, strings.TrimSpace(req.Comment), claimsFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *PostHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	comments, err := h.commentService.ListByPost(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func parsePostForm(r *http.Request) (services.CreatePostInput, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return services.CreatePostInput{}, errors.New("invalid multipart form")
	}

	input := services.CreatePostInput{
		Name:        strings.TrimSpace(r.FormValue(formFieldName)),
		Description: strings.TrimSpace(r.FormValue(formFieldDescription)),
		Contact:     strings.TrimSpace(r.FormValue(formFieldContact)),
	}

	var err error
	if input.Price, err = parseOptionalIntField(r.FormValue(formFieldPrice)); err != nil {
		return services.CreatePostInput{}, errors.New("invalid price")
	}
	if input.ContactTypeID, err = parseOptionalIntField(r.FormValue(formFieldContactType)); err != nil {
		return services.CreatePostInput{}, errors.New("invalid contact type id")
	}
	if input.CategoryID, err = parseOptionalIntField(r.FormValue(formFieldCategory)); err != nil {
		return services.CreatePostInput{}, errors.New("invalid category id")
	}
	if backup := strings.TrimSpace(r.FormValue(formFieldContactBackup)); backup != "" {
		input.ContactBackup = &backup
	}
	if location := strings.TrimSpace(r.FormValue(formFieldLocation)); location != "" {
		input.Location = &location
	}

	if r.MultipartForm != nil && len(r.MultipartForm.File[formFieldImage]) > 0 {
		image, contentType, err := parseImageFile(r.MultipartForm)
		if err != nil {
			return services.CreatePostInput{}, err
		}
		input.Image = image
		input.ImageContentType = contentType
	}

	return input, nil
}

func parseOptionalIntField(value string) (*int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func parseImageFile(form *multipart.Form) ([]byte, string, error) {
	if form == nil {
		return nil, "", errors.New("missing form data")
	}

	files := form.File[formFieldImage]
	if len(files) == 0 {
		return nil, "", errors.New("image file is required")
	}
	if len(files) > 1 {
		return nil, "", errors.New("only one image file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image file: %w", err)
	}

	data, err := readFileLimited(file, maxImageBytes)
	_ = file.Close()
	if err != nil {
		return nil, "", err
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return data, contentType, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
