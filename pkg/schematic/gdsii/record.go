package gdsii

// Record type codes, as laid out in the Calma GDSII stream format.
const (
	recHEADER   = 0x00
	recBGNLIB   = 0x01
	recLIBNAME  = 0x02
	recUNITS    = 0x03
	recENDLIB   = 0x04
	recBGNSTR   = 0x05
	recSTRNAME  = 0x06
	recENDSTR   = 0x07
	recBOUNDARY = 0x08
	recPATH     = 0x09
	recSREF     = 0x0A
	recAREF     = 0x0B
	recTEXT     = 0x0C
	recLAYER    = 0x0D
	recDATATYPE = 0x0E
	recWIDTH    = 0x0F
	recXY       = 0x10
	recENDEL    = 0x11
	recSNAME    = 0x12
	recCOLROW   = 0x13
	recTEXTNODE = 0x14
	recNODE     = 0x15
	recTEXTTYPE = 0x16
	recSTRANS   = 0x1A
	recMAG      = 0x1B
	recANGLE    = 0x1C
	recPATHTYPE = 0x21
	recBOX      = 0x2D
	recBOXTYPE  = 0x2E
)

// Data type codes.
const (
	dtNoData  = 0
	dtBitArr  = 1
	dtInt2    = 2
	dtInt4    = 3
	dtReal4   = 4
	dtReal8   = 5
	dtAscii   = 6
)

type record struct {
	typ     byte
	dataTyp byte
	data    []byte
	offset  int64
}
