package model

import (
	"encoding/gob"
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/scigo-housing/pkg/errors"
)

// SaveModel はモデルをgob形式でファイルに保存する
//
// 保存先のディレクトリが存在しない場合は作成し、既存ファイルは上書きする。
//
// 使用例:
//
//	err := model.SaveModel(forest.Snapshot(), "output/model.gob")
func SaveModel(model interface{}, filename string) (err error) {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return errors.NewIOError("mkdir", filepath.Dir(filename), err)
	}

	file, err := os.Create(filename)
	if err != nil {
		return errors.NewIOError("create", filename, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = errors.NewIOError("close", filename, cerr)
		}
	}()

	return SaveModelToWriter(model, file)
}

// LoadModel はファイルからモデルを読み込む
//
//	var snap ensemble.ForestSnapshot
//	err := model.LoadModel(&snap, "output/model.gob")
func LoadModel(model interface{}, filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return errors.NewIOError("open", filename, err)
	}
	defer file.Close()

	return LoadModelFromReader(model, file)
}

// SaveModelToWriter はモデルをio.Writerに保存する
func SaveModelToWriter(model interface{}, w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(model); err != nil {
		return errors.Wrap(err, "failed to encode model")
	}
	return nil
}

// LoadModelFromReader はio.Readerからモデルを読み込む
func LoadModelFromReader(model interface{}, r io.Reader) error {
	if err := gob.NewDecoder(r).Decode(model); err != nil {
		return errors.Wrap(err, "failed to decode model")
	}
	return nil
}
