package handler

import (
	"github.com/gofiber/fiber/v2"
	"real-time-messenger/apperror"
	"real-time-messenger/config/logger"
	"real-time-messenger/dto/res"
	"real-time-messenger/middleware"
	"real-time-messenger/storage"
)

type UploadHandler struct {
	*storage.LocalStore
	Log *logger.AppLogger
}

func NewUploadHandler(store *storage.LocalStore, logger *logger.AppLogger) *UploadHandler {
	return &UploadHandler{LocalStore: store, Log: logger}
}

func (handler *UploadHandler) UploadFile(c *fiber.Ctx) error {
	kind, err := storage.ParseKind(c.Params("kind"))
	if err != nil {
		return err
	}

	header, err := c.FormFile("file")
	if err != nil {
		return apperror.Wrap(apperror.ValidationError, "No file uploaded", err)
	}
	file, err := header.Open()
	if err != nil {
		return apperror.Storage(err)
	}
	defer file.Close()

	stored, err := handler.LocalStore.Save(kind, header.Filename, header.Size, file)
	if err != nil {
		return err
	}

	handler.Log.Http.Info.Info().
		Str("userId", middleware.UserID(c)).
		Str("kind", string(kind)).
		Str("path", stored.Path).
		Int64("size", stored.FileSize).
		Msg("File uploaded")

	return c.Status(fiber.StatusCreated).JSON(res.CommonResponse[res.UploadResponse]{
		Message:    "Successfully to Upload File",
		StatusCode: fiber.StatusCreated,
		Data: res.UploadResponse{
			FileURL:     stored.FileURL,
			FileName:    stored.FileName,
			FileSize:    stored.FileSize,
			MessageType: string(stored.Kind),
			FileID:      stored.FileID,
		},
	})
}

func (handler *UploadHandler) DeleteFile(c *fiber.Ctx) error {
	if err := handler.LocalStore.Delete(c.Params("*")); err != nil {
		return err
	}

	return c.Status(fiber.StatusOK).JSON(res.CommonResponse[any]{
		Message:    "Successfully to Delete File",
		StatusCode: fiber.StatusOK,
	})
}
