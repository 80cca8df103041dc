package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"document-chat/internal/db"
	"document-chat/internal/helper"
	"document-chat/internal/parser"
)

const maxUploadBytes = 32 << 20

type chatRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

type chatResponse struct {
	Answer    string `json:"answer"`
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		respondError(w, http.StatusBadRequest, "question is required")
		return
	}

	model := req.Model
	if model == "" {
		model = s.cfg.Chat.DefaultModel
	}
	if !s.engine.SupportsModel(model) {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("unsupported model: %s", model))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		var err error
		sessionID, err = helper.GenerateUUID()
		if err != nil {
			respondError(w, http.StatusInternalServerError, "failed to create session")
			return
		}
	}

	log.Info().Str("session_id", sessionID).Str("model", model).Str("question", req.Question).Msg("chat request")

	history, err := db.GetChatHistory(r.Context(), s.db, sessionID)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to load chat history")
		respondError(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}

	answer, err := s.engine.Answer(r.Context(), model, req.Question, history)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to generate answer")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if err := db.InsertConversationTurn(r.Context(), s.db, sessionID, req.Question, answer, model); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to record conversation turn")
		respondError(w, http.StatusInternalServerError, "failed to record conversation turn")
		return
	}

	respondJSON(w, http.StatusOK, chatResponse{Answer: answer, SessionID: sessionID, Model: model})
}

type uploadResponse struct {
	Message string `json:"message"`
	FileID  int64  `json:"file_id"`
}

func (s *Server) handleUploadDoc(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if !parser.IsAllowedExtension(header.Filename) {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("unsupported file type %s, allowed types are: %s", ext, strings.Join(parser.AllowedExtensions, ", ")))
		return
	}

	// the parser dispatches on the extension, so the temp file keeps it
	tmp, err := os.CreateTemp("", "upload-*"+ext)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save uploaded file")
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		respondError(w, http.StatusInternalServerError, "failed to save uploaded file")
		return
	}
	if err := tmp.Close(); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to save uploaded file")
		return
	}

	fileID, err := db.InsertDocumentRecord(r.Context(), s.db, header.Filename)
	if err != nil {
		log.Error().Err(err).Str("filename", header.Filename).Msg("failed to create document record")
		respondError(w, http.StatusInternalServerError, "failed to create document record")
		return
	}

	if err := s.pipeline.Ingest(r.Context(), tmpPath, fileID); err != nil {
		log.Error().Err(err).Int64("file_id", fileID).Msg("indexing failed, rolling back document record")
		if delErr := db.DeleteDocumentRecord(r.Context(), s.db, fileID); delErr != nil {
			log.Error().Err(delErr).Int64("file_id", fileID).Msg("failed to roll back document record")
		}
		respondError(w, http.StatusInternalServerError, fmt.Sprintf("failed to index %s", header.Filename))
		return
	}

	respondJSON(w, http.StatusOK, uploadResponse{
		Message: fmt.Sprintf("File %s has been successfully uploaded and indexed.", header.Filename),
		FileID:  fileID,
	})
}

func (s *Server) handleListDocs(w http.ResponseWriter, r *http.Request) {
	docs, err := db.ListDocuments(r.Context(), s.db)
	if err != nil {
		log.Error().Err(err).Msg("failed to list documents")
		respondError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}
	if docs == nil {
		docs = []db.Document{}
	}
	respondJSON(w, http.StatusOK, docs)
}

type deleteRequest struct {
	FileID int64 `json:"file_id"`
}

func (s *Server) handleDeleteDoc(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.FileID == 0 {
		respondError(w, http.StatusBadRequest, "file_id is required")
		return
	}

	// vector store first; on failure the registry is left untouched
	if err := s.vectors.DeleteDocument(r.Context(), req.FileID); err != nil {
		log.Error().Err(err).Int64("file_id", req.FileID).Msg("failed to delete from vector store")
		respondError(w, http.StatusInternalServerError,
			fmt.Sprintf("failed to delete document with file_id %d from the vector store", req.FileID))
		return
	}

	if err := db.DeleteDocumentRecord(r.Context(), s.db, req.FileID); err != nil {
		log.Error().Err(err).Int64("file_id", req.FileID).Msg("CRITICAL: deleted from vector store but failed to delete registry record")
		respondError(w, http.StatusInternalServerError,
			fmt.Sprintf("critical: document %d deleted from vector store but failed to delete from registry, manual intervention required", req.FileID))
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Successfully deleted document with file_id %d from the system.", req.FileID),
	})
}

type auditResponse struct {
	Documents      int           `json:"documents"`
	MissingVectors []db.Document `json:"missing_vectors"`
}

// handleAudit reports registry entries that have no vector records left,
// the detectable side of the missing cross-store transaction.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	docs, err := db.ListDocuments(r.Context(), s.db)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list documents")
		return
	}

	missing := []db.Document{}
	if len(docs) > 0 {
		probe, err := s.embedder.EmbedQuery(r.Context(), "audit probe")
		if err != nil {
			log.Error().Err(err).Msg("failed to build audit probe embedding")
			respondError(w, http.StatusInternalServerError, "failed to build audit probe")
			return
		}
		for _, doc := range docs {
			ok, err := s.vectors.HasDocument(r.Context(), doc.ID, probe)
			if err != nil {
				respondError(w, http.StatusInternalServerError, "failed to check vector records")
				return
			}
			if !ok {
				missing = append(missing, doc)
			}
		}
	}

	respondJSON(w, http.StatusOK, auditResponse{Documents: len(docs), MissingVectors: missing})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
