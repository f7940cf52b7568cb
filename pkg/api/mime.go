package api

import "strings"

// ResponseMimeType selects the output format of generated candidates.
type ResponseMimeType string

const (
	ResponseMimeTypeTextPlain ResponseMimeType = "text/plain"
	ResponseMimeTypeJSON      ResponseMimeType = "application/json"
	ResponseMimeTypeEnum      ResponseMimeType = "text/x.enum"
)

// MimeType is the media type of inline data and file references.
type MimeType string

// Image types.
const (
	MimeTypeImagePNG  MimeType = "image/png"
	MimeTypeImageJPEG MimeType = "image/jpeg"
	MimeTypeImageWebP MimeType = "image/webp"
	MimeTypeImageHEIC MimeType = "image/heic"
	MimeTypeImageHEIF MimeType = "image/heif"
)

// Audio types.
const (
	MimeTypeAudioWAV  MimeType = "audio/wav"
	MimeTypeAudioMP3  MimeType = "audio/mp3"
	MimeTypeAudioMPEG MimeType = "audio/mpeg"
	MimeTypeAudioAIFF MimeType = "audio/aiff"
	MimeTypeAudioAAC  MimeType = "audio/aac"
	MimeTypeAudioOGG  MimeType = "audio/ogg"
	MimeTypeAudioFLAC MimeType = "audio/flac"
)

// Video types.
const (
	MimeTypeVideoMP4  MimeType = "video/mp4"
	MimeTypeVideoMPEG MimeType = "video/mpeg"
	MimeTypeVideoMOV  MimeType = "video/mov"
	MimeTypeVideoAVI  MimeType = "video/avi"
	MimeTypeVideoFLV  MimeType = "video/x-flv"
	MimeTypeVideoMPG  MimeType = "video/mpg"
	MimeTypeVideoWebM MimeType = "video/webm"
	MimeTypeVideoWMV  MimeType = "video/wmv"
	MimeTypeVideo3GPP MimeType = "video/3gpp"
)

// Document and source types.
const (
	MimeTypePDF         MimeType = "application/pdf"
	MimeTypeTextPlain   MimeType = "text/plain"
	MimeTypeHTML        MimeType = "text/html"
	MimeTypeCSS         MimeType = "text/css"
	MimeTypeJavaScript  MimeType = "text/javascript"
	MimeTypeXJavaScript MimeType = "application/x-javascript"
	MimeTypeTypeScript  MimeType = "text/x-typescript"
	MimeTypeXTypeScript MimeType = "application/x-typescript"
	MimeTypeCSV         MimeType = "text/csv"
	MimeTypeMarkdown    MimeType = "text/markdown"
	MimeTypePython      MimeType = "text/x-python"
	MimeTypePythonCode  MimeType = "application/x-python-code"
	MimeTypeJSON        MimeType = "application/json"
	MimeTypeXML         MimeType = "text/xml"
	MimeTypeRTF         MimeType = "application/rtf"
	MimeTypeTextRTF     MimeType = "text/rtf"
)

// Kind returns the top-level media type ("image", "audio", ...).
func (m MimeType) Kind() string {
	kind, _, _ := strings.Cut(string(m), "/")
	return kind
}
