//go:build cgo && (linux || darwin || windows)

package native

// #include "abi.h"
import "C"

import (
	"unsafe"

	"github.com/justyntemme/vst3host/pkg/vst3"
)

type factory struct {
	object
	v2 *object // IPluginFactory2, nil when unsupported
}

var _ vst3.IPluginFactory = (*factory)(nil)

func newFactory(ptr unsafe.Pointer) *factory {
	f := &factory{object: object{ptr: ptr}}
	if p, err := f.query(vst3.IIDIPluginFactory2); err == nil {
		f.v2 = &object{ptr: p}
	}
	return f
}

func (f *factory) Release() uint32 {
	if f.v2 != nil {
		f.v2.Release()
	}
	return f.object.Release()
}

func (f *factory) Info() (vst3.FactoryInfo, error) {
	var info C.vh_factory_info
	if err := vst3.Result(C.vh_factory_get_info(f.ptr, &info)).Err(); err != nil {
		return vst3.FactoryInfo{}, err
	}
	return vst3.FactoryInfo{
		Vendor: charString(&info.vendor[0], len(info.vendor)),
		URL:    charString(&info.url[0], len(info.url)),
		Email:  charString(&info.email[0], len(info.email)),
		Flags:  int32(info.flags),
	}, nil
}

func (f *factory) CountClasses() int32 {
	return int32(C.vh_factory_count_classes(f.ptr))
}

func (f *factory) ClassInfo(index int32) (vst3.ClassInfo, error) {
	if f.v2 != nil {
		var info C.vh_class_info2
		if vst3.Result(C.vh_factory_class_info2(f.v2.ptr, C.int32_t(index), &info)) == vst3.ResultOK {
			return vst3.ClassInfo{
				CID:           *(*vst3.TUID)(unsafe.Pointer(&info.cid[0])),
				Cardinality:   int32(info.cardinality),
				Category:      charString(&info.category[0], len(info.category)),
				Name:          charString(&info.name[0], len(info.name)),
				ClassFlags:    uint32(info.classFlags),
				SubCategories: charString(&info.subCategories[0], len(info.subCategories)),
				Vendor:        charString(&info.vendor[0], len(info.vendor)),
				Version:       charString(&info.version[0], len(info.version)),
				SDKVersion:    charString(&info.sdkVersion[0], len(info.sdkVersion)),
			}, nil
		}
	}

	var info C.vh_class_info
	if err := vst3.Result(C.vh_factory_class_info(f.ptr, C.int32_t(index), &info)).Err(); err != nil {
		return vst3.ClassInfo{}, err
	}
	return vst3.ClassInfo{
		CID:         *(*vst3.TUID)(unsafe.Pointer(&info.cid[0])),
		Cardinality: int32(info.cardinality),
		Category:    charString(&info.category[0], len(info.category)),
		Name:        charString(&info.name[0], len(info.name)),
	}, nil
}

func (f *factory) create(cid, iid vst3.TUID) (unsafe.Pointer, error) {
	var out unsafe.Pointer
	if err := vst3.Result(C.vh_factory_create(f.ptr, tuid(&cid), tuid(&iid), &out)).Err(); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, vst3.ResultNoInterface
	}
	return out, nil
}

func (f *factory) CreateComponent(cid vst3.TUID) (vst3.IComponent, error) {
	ptr, err := f.create(cid, vst3.IIDIComponent)
	if err != nil {
		return nil, err
	}
	return &component{object: object{ptr: ptr}}, nil
}

func (f *factory) CreateController(cid vst3.TUID) (vst3.IEditController, error) {
	ptr, err := f.create(cid, vst3.IIDIEditController)
	if err != nil {
		return nil, err
	}
	return &controller{object: object{ptr: ptr}}, nil
}
