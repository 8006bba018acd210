package main

const (
	MsgInvalidRequest = "The request did not contain an image. Send the image as the request body, as a multipart field named \"file\", or as base64 in a JSON field named \"image\"."

	MsgInvalidImage = "We couldn't read that image. Supported input formats are PNG, JPEG, GIF, BMP, TIFF and WebP."

	MsgTooLarge = "The upscaled image would be too large. Try a smaller image or fewer passes."

	MsgBusy = "All scalers are busy right now. Please retry in a moment."

	MsgCanceled = "The request was canceled before the image was upscaled."

	MsgTimeout = "Upscaling took too long. Try a smaller image or fewer passes."

	MsgUnsupportedFormat = "That output format isn't supported. Choose one of png, jpeg, gif, bmp or tiff."
)
