package storage

import (
	"encoding/json"
	"errors"

	"halt/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeCensus(c model.CensusRecord) ([]byte, error) {
	return json.Marshal(c)
}

func DecodeCensus(data []byte) (model.CensusRecord, error) {
	var census model.CensusRecord
	if err := json.Unmarshal(data, &census); err != nil {
		return model.CensusRecord{}, err
	}
	if err := checkVersion(census.VersionedRecord); err != nil {
		return model.CensusRecord{}, err
	}
	return census, nil
}

func EncodeMachineResults(results []model.MachineResult) ([]byte, error) {
	return json.Marshal(results)
}

func DecodeMachineResults(data []byte) ([]model.MachineResult, error) {
	var results []model.MachineResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, err
	}
	for _, result := range results {
		if err := checkVersion(result.VersionedRecord); err != nil {
			return nil, err
		}
	}
	return results, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
