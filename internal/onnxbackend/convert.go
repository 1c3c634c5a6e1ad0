package onnxbackend

import (
	"fmt"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/screenager/gliner2/internal/nerrors"
	"github.com/screenager/gliner2/internal/tensor"
)

// toORTValue builds an ort.Value from a Value, following the teacher's
// shape64/NewTensor idiom in embedder.go. The returned destroy func must
// be deferred by the caller.
func toORTValue(v Value) (ort.Value, func(), error) {
	shape := make([]int64, len(v.Shape))
	for i, d := range v.Shape {
		shape[i] = int64(d)
	}
	s := ort.NewShape(shape...)

	switch v.DType {
	case DTFloat32:
		if len(v.F32) != v.elemCount() {
			return nil, nil, nerrors.New(nerrors.InvalidInput, "onnxbackend.convert", "float32 value shape/data mismatch")
		}
		t, err := ort.NewTensor(s, v.F32)
		if err != nil {
			return nil, nil, nerrors.Wrap(nerrors.InvalidInput, "onnxbackend.convert", "build float32 tensor", err)
		}
		return t, func() { t.Destroy() }, nil
	case DTInt32:
		if len(v.I32) != v.elemCount() {
			return nil, nil, nerrors.New(nerrors.InvalidInput, "onnxbackend.convert", "int32 value shape/data mismatch")
		}
		ids64 := make([]int64, len(v.I32))
		for i, x := range v.I32 {
			ids64[i] = int64(x)
		}
		t, err := ort.NewTensor(s, ids64)
		if err != nil {
			return nil, nil, nerrors.Wrap(nerrors.InvalidInput, "onnxbackend.convert", "build int64 tensor", err)
		}
		return t, func() { t.Destroy() }, nil
	default:
		return nil, nil, nerrors.New(nerrors.InvalidInput, "onnxbackend.convert", fmt.Sprintf("unsupported input dtype %d", v.DType))
	}
}

// fromORTValue decodes an ONNX Runtime output tensor into a Value. Float16
// outputs (the span-rep/classifier/count-embed modules, per §4.3) are
// decoded here so every Value a caller sees downstream is float32.
func fromORTValue(o ort.Value) (Value, error) {
	shape64 := o.GetShape()
	shape := make([]int, len(shape64))
	for i, d := range shape64 {
		shape[i] = int(d)
	}

	switch t := o.(type) {
	case *ort.Tensor[float32]:
		data := t.GetData()
		cp := append([]float32(nil), data...)
		return Value{DType: DTFloat32, Shape: shape, F32: cp}, nil
	case *ort.Tensor[uint16]:
		// float16 arrives as raw uint16 bit patterns (ORT has no native
		// float16 Go type); decode to float32 immediately.
		raw := t.GetData()
		out := make([]float32, len(raw))
		for i, h := range raw {
			out[i] = tensor.Float16ToFloat32(h)
		}
		return Value{DType: DTFloat32, Shape: shape, F32: out}, nil
	case *ort.Tensor[int64]:
		data := t.GetData()
		out := make([]int32, len(data))
		for i, x := range data {
			out[i] = int32(x)
		}
		return Value{DType: DTInt32, Shape: shape, I32: out}, nil
	default:
		return Value{}, nerrors.New(nerrors.InvalidOutput, "onnxbackend.convert", "unexpected output tensor type")
	}
}
