package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
)

// imageSource is a frame source holding one decoded file.
type imageSource struct {
	img image.Image
}

func (s imageSource) CurrentFrame() (image.Image, error) {
	return s.img, nil
}

func loadImageSource(path string) (imageSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return imageSource{}, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return imageSource{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return imageSource{img: img}, nil
}
