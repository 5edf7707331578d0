package service

import (
	"strings"

	"github.com/document-requests-api/internal/domain"
	"github.com/gabriel-vasile/mimetype"
)

// extensionMimes сопоставляет расширения из настроек запроса с MIME типами
var extensionMimes = map[string][]string{
	"pdf":  {"application/pdf"},
	"doc":  {"application/msword"},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	"xls":  {"application/vnd.ms-excel"},
	"xlsx": {"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	"ppt":  {"application/vnd.ms-powerpoint"},
	"pptx": {"application/vnd.openxmlformats-officedocument.presentationml.presentation"},
	"odt":  {"application/vnd.oasis.opendocument.text"},
	"ods":  {"application/vnd.oasis.opendocument.spreadsheet"},
	"odp":  {"application/vnd.oasis.opendocument.presentation"},
	"rtf":  {"text/rtf"},
	"jpg":  {"image/jpeg"},
	"jpeg": {"image/jpeg"},
	"png":  {"image/png"},
	"gif":  {"image/gif"},
	"webp": {"image/webp"},
	"heic": {"image/heic"},
	"tif":  {"image/tiff"},
	"tiff": {"image/tiff"},
	"bmp":  {"image/bmp"},
	"txt":  {"text/plain"},
	"csv":  {"text/csv"},
	"zip":  {"application/zip"},
}

// knownFormat сообщает, можно ли проверить расширение по содержимому файла
func knownFormat(ext string) bool {
	_, ok := extensionMimes[ext]
	return ok
}

// allowedMimes возвращает MIME типы для списка расширений.
// Неизвестные расширения отсекаются при создании запроса.
func allowedMimes(formats []string) []string {
	var mimes []string
	for _, f := range formats {
		mimes = append(mimes, extensionMimes[f]...)
	}
	return mimes
}

// validateFile проверяет размер и тип файла по настройкам запроса.
// Возвращает определённый по содержимому MIME тип.
func validateFile(req *domain.DocumentRequest, file FileUpload) (string, error) {
	size := int64(len(file.Data))
	if size == 0 {
		return "", domain.ErrEmptyFile
	}
	if req.MaxFileSizeMB > 0 && size > req.MaxFileSizeBytes() {
		return "", domain.Validationf("File size exceeds the maximum allowed size of %d MB", req.MaxFileSizeMB)
	}

	detected := mimetype.Detect(file.Data)
	formats := req.AcceptedFormatList()
	if len(formats) == 0 {
		return detected.String(), nil
	}

	allowed := allowedMimes(formats)
	for m := detected; m != nil; m = m.Parent() {
		for _, a := range allowed {
			if m.Is(a) {
				return detected.String(), nil
			}
		}
	}
	return "", domain.Validationf("File type %s is not allowed. Accepted formats: %s",
		detected.String(), strings.Join(formats, ", "))
}
