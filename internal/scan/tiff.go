package scan

import (
	"encoding/binary"
	"fmt"
	"os"
)

// TIFF IFD tags and field types used by the resolution probe.
const (
	tagXResolution    = 282
	tagYResolution    = 283
	tagResolutionUnit = 296

	fieldShort    = 3
	fieldRational = 5

	unitInch       = 2
	unitCentimeter = 3
)

// probeTIFFDPI walks the first IFD of a TIFF file looking for the
// resolution tags. The x/image decoder discards them, so the header is
// parsed directly.
func probeTIFFDPI(path string) (float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	header := make([]byte, 8)
	if _, err := file.Read(header); err != nil {
		return 0, err
	}

	var byteOrder binary.ByteOrder
	switch {
	case header[0] == 'I' && header[1] == 'I':
		byteOrder = binary.LittleEndian
	case header[0] == 'M' && header[1] == 'M':
		byteOrder = binary.BigEndian
	default:
		return 0, fmt.Errorf("not a valid TIFF file")
	}

	ifdOffset := byteOrder.Uint32(header[4:8])
	if _, err := file.Seek(int64(ifdOffset), 0); err != nil {
		return 0, err
	}

	var numEntries uint16
	if err := binary.Read(file, byteOrder, &numEntries); err != nil {
		return 0, err
	}

	var xRes, yRes float64
	var resUnit uint16 = unitInch

	for i := uint16(0); i < numEntries; i++ {
		entry := make([]byte, 12)
		if _, err := file.Read(entry); err != nil {
			return 0, err
		}

		tag := byteOrder.Uint16(entry[0:2])
		fieldType := byteOrder.Uint16(entry[2:4])
		valueOffset := byteOrder.Uint32(entry[8:12])

		switch tag {
		case tagXResolution:
			if fieldType == fieldRational {
				xRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case tagYResolution:
			if fieldType == fieldRational {
				yRes = readTIFFRational(file, int64(valueOffset), byteOrder)
			}
		case tagResolutionUnit:
			// SHORT values sit left-justified in the value field.
			if fieldType == fieldShort {
				resUnit = byteOrder.Uint16(entry[8:10])
			}
		}
	}

	dpi := xRes
	if dpi == 0 {
		dpi = yRes
	}
	if resUnit == unitCentimeter {
		dpi *= 2.54
	}
	if dpi == 0 {
		return 0, fmt.Errorf("no resolution tags found")
	}

	return dpi, nil
}

// readTIFFRational reads a RATIONAL value (two uint32s) at offset,
// restoring the file position afterwards.
func readTIFFRational(file *os.File, offset int64, byteOrder binary.ByteOrder) float64 {
	currentPos, _ := file.Seek(0, 1)
	defer file.Seek(currentPos, 0)

	file.Seek(offset, 0)
	var num, denom uint32
	binary.Read(file, byteOrder, &num)
	binary.Read(file, byteOrder, &denom)

	if denom == 0 {
		return 0
	}
	return float64(num) / float64(denom)
}
