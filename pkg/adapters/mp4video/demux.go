package mp4video

import (
	"fmt"
	"io"

	"github.com/Eyevinn/mp4ff/mp4"
)

// rawSample is one H.264 access unit in Annex B form with its
// presentation time.
type rawSample struct {
	Data        []byte
	TimestampMs int
	DurationMs  int
	Keyframe    bool
}

// trackInfo describes the video track of a demuxed file.
type trackInfo struct {
	Width      int
	Height     int
	DurationMs int
	Samples    []rawSample
}

// demux parses an MP4 and returns the video track's H.264 samples
// converted to Annex B, with SPS/PPS prepended to keyframes so the
// stream decodes standalone.
func demux(reader io.ReadSeeker) (*trackInfo, error) {
	mp4File, err := mp4.DecodeFile(reader)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}
	if mp4File.IsFragmented() {
		return demuxFragmented(mp4File)
	}
	if mp4File.Moov == nil {
		return nil, fmt.Errorf("no moov box found")
	}

	var videoTrack *mp4.TrakBox
	var avcC *mp4.AvcCBox
	var width, height int

	for _, trak := range mp4File.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		videoTrack = trak
		if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
			for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
				if avc1, ok := child.(*mp4.VisualSampleEntryBox); ok {
					avcC = avc1.AvcC
					width = int(avc1.Width)
					height = int(avc1.Height)
				}
			}
		}
		break
	}
	if videoTrack == nil {
		return nil, fmt.Errorf("no video track found")
	}
	if avcC == nil {
		return nil, fmt.Errorf("no avcC box found, only H.264 tracks are supported")
	}

	var timescale uint32 = 1000
	if videoTrack.Mdia.Mdhd != nil {
		timescale = videoTrack.Mdia.Mdhd.Timescale
	}

	var spsPPS []byte
	for _, sps := range avcC.SPSnalus {
		spsPPS = append(spsPPS, 0, 0, 0, 1)
		spsPPS = append(spsPPS, sps...)
	}
	for _, pps := range avcC.PPSnalus {
		spsPPS = append(spsPPS, 0, 0, 0, 1)
		spsPPS = append(spsPPS, pps...)
	}

	if videoTrack.Mdia.Minf == nil || videoTrack.Mdia.Minf.Stbl == nil {
		return nil, fmt.Errorf("no sample table found")
	}
	stbl := videoTrack.Mdia.Minf.Stbl
	if stbl.Stsz == nil {
		return nil, fmt.Errorf("no stsz box found")
	}
	sampleCount := stbl.Stsz.SampleNumber

	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, sampleNr := range stbl.Stss.SampleNumber {
			syncSamples[sampleNr] = true
		}
	}

	info := &trackInfo{Width: width, Height: height}
	for sampleNr := uint32(1); sampleNr <= sampleCount; sampleNr++ {
		data, err := readSampleData(stbl, reader, sampleNr)
		if err != nil {
			continue
		}

		var decodeTime uint64
		var dur uint32
		if stbl.Stts != nil {
			decodeTime, dur = stbl.Stts.GetDecodeTime(sampleNr)
		}
		timestampMs := int(decodeTime * 1000 / uint64(timescale))
		durationMs := int(uint64(dur) * 1000 / uint64(timescale))
		isKeyframe := syncSamples[sampleNr] || len(syncSamples) == 0

		annexB := avccToAnnexB(data)
		var frameData []byte
		if isKeyframe {
			frameData = make([]byte, len(spsPPS)+len(annexB))
			copy(frameData, spsPPS)
			copy(frameData[len(spsPPS):], annexB)
		} else {
			frameData = annexB
		}

		info.Samples = append(info.Samples, rawSample{
			Data:        frameData,
			TimestampMs: timestampMs,
			DurationMs:  durationMs,
			Keyframe:    isKeyframe,
		})
		if end := timestampMs + durationMs; end > info.DurationMs {
			info.DurationMs = end
		}
	}

	if len(info.Samples) == 0 {
		return nil, fmt.Errorf("video track has no readable samples")
	}
	return info, nil
}

// demuxFragmented walks moof fragments instead of the moov sample
// tables.
func demuxFragmented(mp4File *mp4.File) (*trackInfo, error) {
	if mp4File.Init == nil || mp4File.Init.Moov == nil {
		return nil, fmt.Errorf("no init segment found")
	}

	var videoTrackID uint32
	var trex *mp4.TrexBox
	var avcC *mp4.AvcCBox
	var width, height int
	var timescale uint32 = 1000

	for _, trak := range mp4File.Init.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		videoTrackID = trak.Tkhd.TrackID
		if trak.Mdia.Mdhd != nil {
			timescale = trak.Mdia.Mdhd.Timescale
		}
		if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
			for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
				if avc1, ok := child.(*mp4.VisualSampleEntryBox); ok {
					avcC = avc1.AvcC
					width = int(avc1.Width)
					height = int(avc1.Height)
				}
			}
		}
		break
	}
	if videoTrackID == 0 {
		return nil, fmt.Errorf("no video track found")
	}
	if avcC == nil {
		return nil, fmt.Errorf("no avcC box found, only H.264 tracks are supported")
	}
	if mp4File.Init.Moov.Mvex != nil {
		for _, t := range mp4File.Init.Moov.Mvex.Trexs {
			if t.TrackID == videoTrackID {
				trex = t
				break
			}
		}
	}

	var spsPPS []byte
	for _, sps := range avcC.SPSnalus {
		spsPPS = append(spsPPS, 0, 0, 0, 1)
		spsPPS = append(spsPPS, sps...)
	}
	for _, pps := range avcC.PPSnalus {
		spsPPS = append(spsPPS, 0, 0, 0, 1)
		spsPPS = append(spsPPS, pps...)
	}

	info := &trackInfo{Width: width, Height: height}
	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil {
				continue
			}
			for _, traf := range frag.Moof.Trafs {
				if traf.Tfhd.TrackID != videoTrackID {
					continue
				}

				var baseDecodeTime uint64
				if traf.Tfdt != nil {
					baseDecodeTime = traf.Tfdt.BaseMediaDecodeTime()
				}
				samples, err := frag.GetFullSamples(trex)
				if err != nil {
					return nil, fmt.Errorf("get samples: %w", err)
				}

				currentTime := baseDecodeTime
				for i, sample := range samples {
					isKeyframe := sample.Flags == mp4.SyncSampleFlags || (i == 0 && len(info.Samples) == 0)
					annexB := avccToAnnexB(sample.Data)
					var frameData []byte
					if isKeyframe {
						frameData = make([]byte, len(spsPPS)+len(annexB))
						copy(frameData, spsPPS)
						copy(frameData[len(spsPPS):], annexB)
					} else {
						frameData = annexB
					}

					timestampMs := int(currentTime * 1000 / uint64(timescale))
					durationMs := int(uint64(sample.Dur) * 1000 / uint64(timescale))
					info.Samples = append(info.Samples, rawSample{
						Data:        frameData,
						TimestampMs: timestampMs,
						DurationMs:  durationMs,
						Keyframe:    isKeyframe,
					})
					if end := timestampMs + durationMs; end > info.DurationMs {
						info.DurationMs = end
					}
					currentTime += uint64(sample.Dur)
				}
			}
		}
	}

	if len(info.Samples) == 0 {
		return nil, fmt.Errorf("video track has no readable samples")
	}
	return info, nil
}

// readSampleData reads one sample's bytes through the chunk tables.
func readSampleData(stbl *mp4.StblBox, reader io.ReadSeeker, sampleNr uint32) ([]byte, error) {
	if stbl.Stsc == nil || stbl.Stsz == nil {
		return nil, fmt.Errorf("missing stsc or stsz box")
	}

	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(sampleNr))
	if err != nil {
		return nil, fmt.Errorf("get chunk nr: %w", err)
	}

	var chunkOffset uint64
	switch {
	case stbl.Stco != nil:
		chunkOffset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, fmt.Errorf("get chunk offset: %w", err)
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("chunk nr out of range")
		}
		chunkOffset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return nil, fmt.Errorf("no stco or co64 box")
	}

	offset := chunkOffset
	for s := uint32(firstSampleInChunk); s < sampleNr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}
	sampleSize := stbl.Stsz.GetSampleSize(int(sampleNr))

	if _, err := reader.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample: %w", err)
	}
	data := make([]byte, sampleSize)
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	return data, nil
}

// avccToAnnexB converts length-prefixed NALUs to start-code prefixed form.
func avccToAnnexB(data []byte) []byte {
	var result []byte
	offset := 0
	for offset+4 <= len(data) {
		naluLen := int(data[offset])<<24 | int(data[offset+1])<<16 |
			int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4
		if offset+naluLen > len(data) {
			break
		}
		result = append(result, 0, 0, 0, 1)
		result = append(result, data[offset:offset+naluLen]...)
		offset += naluLen
	}
	return result
}
