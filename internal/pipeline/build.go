package pipeline

import (
	"fmt"
	"strings"

	"github.com/go-gst/go-gst/gst"
	"github.com/rs/zerolog"

	"github.com/YawnsDuzin/nvr-gstreamer-sub001/internal/media"
)

// elements holds every built element keyed by role, plus the handful the
// control surface needs direct references to.
type elements struct {
	source       *gst.Element
	depay        *gst.Element
	parse        *gst.Element
	tee          *gst.Element
	displayQueue *gst.Element
	displayValve *gst.Element
	decoder      *gst.Element
	convert      *gst.Element
	overlay      *gst.Element
	scale        *gst.Element
	capsFilter   *gst.Element
	presentQueue *gst.Element
	videoSink    *gst.Element
	recordQueue  *gst.Element
	recordValve  *gst.Element
	muxer        *gst.Element
	fileSink     *gst.Element
}

// defaultDecoderOrder is used when hardware acceleration is disabled or no
// preference list is configured (spec.md §4.1.3 "ordered default").
var defaultDecoderOrder = []string{"vaapih264dec", "avdec_h264"}

// selectDecoder probes candidates in order and returns the first element
// factory registered. Entries that name a parser instead of a decoder are
// skipped with a warning, per spec.md §4.1.3.
func selectDecoder(preference []string, hwAccel bool, log zerolog.Logger) (string, error) {
	candidates := preference
	if !hwAccel || len(candidates) == 0 {
		candidates = defaultDecoderOrder
	}

	var tried []string
	for _, name := range candidates {
		if strings.Contains(name, "parse") {
			log.Warn().Str("candidate", name).Msg("decoder_preference entry names a parser, skipping")
			continue
		}
		tried = append(tried, name)
		if media.FactoryExists(name) {
			return name, nil
		}
		log.Warn().Str("candidate", name).Msg("decoder factory not registered, skipping")
	}
	return "", &NoDecoderAvailable{Tried: tried}
}

// build constructs every element the topology of spec.md §4.1 requires
// and links the static portion of the graph. The source's dynamic pad is
// linked later, on "pad-added" (see linkDynamicPad).
func build(p Params, log zerolog.Logger) (*gst.Pipeline, *elements, error) {
	media.Init()

	pipeline, err := gst.NewPipeline(fmt.Sprintf("nvr-%s", p.CameraID))
	if err != nil {
		return nil, nil, &PipelineBuildError{Reason: err.Error()}
	}

	decoderFactory, err := selectDecoder(p.DecoderPreference, p.UseHardwareAcceleration, log)
	if err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, nil, err
	}

	specs := []media.ElementSpec{
		{Role: media.RoleSource, Factory: "rtspsrc", Name: "source"},
		{Role: media.RoleDepay, Factory: "rtph264depay", Name: "depay"},
		{Role: media.RoleParse, Factory: "h264parse", Name: "parse"},
		{Role: media.RoleTee, Factory: "tee", Name: "tee"},
		{Role: media.RoleDisplayQueue, Factory: "queue", Name: "display_queue"},
		{Role: media.RoleDisplayValve, Factory: "valve", Name: "display_valve"},
		{Role: media.RoleDecoder, Factory: decoderFactory, Name: "decoder"},
		{Role: media.RoleConvert, Factory: "videoconvert", Name: "convert"},
		{Role: media.RoleOverlay, Factory: "textoverlay", Name: "overlay"},
		{Role: media.RoleScale, Factory: "videoscale", Name: "scale"},
		{Role: media.RoleCapsFilter, Factory: "capsfilter", Name: "capsfilter"},
		{Role: media.RolePresentQueue, Factory: "queue", Name: "present_queue"},
		{Role: media.RoleVideoSink, Factory: "autovideosink", Name: "videosink"},
		{Role: media.RoleRecordQueue, Factory: "queue", Name: "record_queue"},
		{Role: media.RoleRecordValve, Factory: "valve", Name: "record_valve"},
		{Role: media.RoleMuxer, Factory: "mp4mux", Name: "muxer"},
		{Role: media.RoleFileSink, Factory: "filesink", Name: "filesink"},
	}

	built, err := media.VerifyCapabilitySet(specs)
	if err != nil {
		pipeline.SetState(gst.StateNull)
		var missingErr *media.MissingElementsError
		if ok := asMissingElements(err, &missingErr); ok {
			return nil, nil, &PipelineBuildError{Reason: "required element unavailable", MissingElements: missingErr.Roles}
		}
		return nil, nil, &PipelineBuildError{Reason: err.Error()}
	}

	el := &elements{
		source:       built[media.RoleSource],
		depay:        built[media.RoleDepay],
		parse:        built[media.RoleParse],
		tee:          built[media.RoleTee],
		displayQueue: built[media.RoleDisplayQueue],
		displayValve: built[media.RoleDisplayValve],
		decoder:      built[media.RoleDecoder],
		convert:      built[media.RoleConvert],
		overlay:      built[media.RoleOverlay],
		scale:        built[media.RoleScale],
		capsFilter:   built[media.RoleCapsFilter],
		presentQueue: built[media.RolePresentQueue],
		videoSink:    built[media.RoleVideoSink],
		recordQueue:  built[media.RoleRecordQueue],
		recordValve:  built[media.RoleRecordValve],
		muxer:        built[media.RoleMuxer],
		fileSink:     built[media.RoleFileSink],
	}

	configureElements(el, p)

	allElements := []*gst.Element{
		el.source, el.depay, el.parse, el.tee,
		el.displayQueue, el.displayValve, el.decoder, el.convert, el.overlay, el.scale, el.capsFilter, el.presentQueue, el.videoSink,
		el.recordQueue, el.recordValve, el.muxer, el.fileSink,
	}
	if err := pipeline.AddMany(allElements...); err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, nil, &PipelineBuildError{Reason: fmt.Sprintf("add elements: %v", err)}
	}

	if err := linkStatic(el); err != nil {
		pipeline.SetState(gst.StateNull)
		return nil, nil, &PipelineBuildError{Reason: fmt.Sprintf("link elements: %v", err)}
	}

	linkDynamicPad(el, log)

	return pipeline, el, nil
}

func asMissingElements(err error, target **media.MissingElementsError) bool {
	me, ok := err.(*media.MissingElementsError)
	if ok {
		*target = me
	}
	return ok
}

func configureElements(el *elements, p Params) {
	el.source.SetProperty("location", p.RTSPURL)
	el.source.SetProperty("latency", uint(p.LatencyMS))
	el.source.SetProperty("tcp-timeout", int64(p.TCPTimeoutMS)*1000) // ms -> us, spec.md §6
	el.source.SetProperty("protocols", 4)                            // GST_RTSP_LOWER_TRANS_TCP
	el.source.SetProperty("retry", uint(5))

	el.tee.SetProperty("allow-not-linked", true)

	el.displayQueue.SetProperty("max-size-buffers", uint(100))
	if p.BufferSizeBytes > 0 {
		el.displayQueue.SetProperty("max-size-bytes", uint(p.BufferSizeBytes))
	}
	el.displayValve.SetProperty("drop", false)

	el.presentQueue.SetProperty("max-size-buffers", uint(3))
	el.presentQueue.SetProperty("leaky", 2) // downstream

	if p.OSD.FontSize > 0 {
		el.overlay.SetProperty("font-desc", fmt.Sprintf("Sans %d", p.OSD.FontSize))
	}
	el.overlay.SetProperty("shaded-background", true)
	el.overlay.SetProperty("halignment", 0) // left
	el.overlay.SetProperty("valignment", 2) // top
	el.overlay.SetProperty("xpad", 10)
	el.overlay.SetProperty("ypad", 10)
	argb := uint32(0xFF)<<24 | uint32(p.OSD.ColorR)<<16 | uint32(p.OSD.ColorG)<<8 | uint32(p.OSD.ColorB)
	el.overlay.SetProperty("color", argb)

	el.capsFilter.SetProperty("caps", gst.NewCapsFromString("video/x-raw,width=1280,height=720"))

	el.recordQueue.SetProperty("max-size-buffers", uint(200))
	el.recordQueue.SetProperty("max-size-bytes", uint(0))
	el.recordValve.SetProperty("drop", true) // record branch starts closed

	el.muxer.SetProperty("fragment-duration", uint(1000))
	el.muxer.SetProperty("streamable", true)
}

func linkStatic(el *elements) error {
	// depay -> parse -> tee
	if err := el.depay.Link(el.parse); err != nil {
		return fmt.Errorf("depay->parse: %w", err)
	}
	if err := el.parse.Link(el.tee); err != nil {
		return fmt.Errorf("parse->tee: %w", err)
	}

	// tee -> display branch
	if err := linkTeeBranch(el.tee, el.displayQueue); err != nil {
		return fmt.Errorf("tee->display_queue: %w", err)
	}
	if err := el.displayQueue.Link(el.displayValve); err != nil {
		return fmt.Errorf("display_queue->display_valve: %w", err)
	}
	if err := el.displayValve.Link(el.decoder); err != nil {
		return fmt.Errorf("display_valve->decoder: %w", err)
	}
	if err := el.decoder.Link(el.convert); err != nil {
		return fmt.Errorf("decoder->convert: %w", err)
	}
	if err := el.convert.Link(el.overlay); err != nil {
		return fmt.Errorf("convert->overlay: %w", err)
	}
	if err := el.overlay.Link(el.scale); err != nil {
		return fmt.Errorf("overlay->scale: %w", err)
	}
	if err := el.scale.Link(el.capsFilter); err != nil {
		return fmt.Errorf("scale->capsfilter: %w", err)
	}
	if err := el.capsFilter.Link(el.presentQueue); err != nil {
		return fmt.Errorf("capsfilter->present_queue: %w", err)
	}
	if err := el.presentQueue.Link(el.videoSink); err != nil {
		return fmt.Errorf("present_queue->videosink: %w", err)
	}

	// tee -> record branch
	if err := linkTeeBranch(el.tee, el.recordQueue); err != nil {
		return fmt.Errorf("tee->record_queue: %w", err)
	}
	if err := el.recordQueue.Link(el.recordValve); err != nil {
		return fmt.Errorf("record_queue->record_valve: %w", err)
	}
	if err := el.recordValve.Link(el.muxer); err != nil {
		return fmt.Errorf("record_valve->muxer: %w", err)
	}
	if err := el.muxer.Link(el.fileSink); err != nil {
		return fmt.Errorf("muxer->filesink: %w", err)
	}

	return nil
}

// linkTeeBranch requests a fresh tee source pad and links it to sink's
// static sink pad, since tee pads are request pads rather than static ones.
func linkTeeBranch(tee, sink *gst.Element) error {
	teePad := tee.GetRequestPad("src_%u")
	if teePad == nil {
		return fmt.Errorf("could not request tee src pad")
	}
	sinkPad := sink.GetStaticPad("sink")
	if sinkPad == nil {
		return fmt.Errorf("sink element has no static sink pad")
	}
	if ret := teePad.Link(sinkPad); ret != gst.PadLinkOK {
		return fmt.Errorf("tee pad link failed: %v", ret)
	}
	return nil
}

// linkDynamicPad wires source's "pad-added" signal to depay's sink pad,
// linking only once and only for RTP payload caps, per spec.md §4.1.1.
func linkDynamicPad(el *elements, log zerolog.Logger) {
	el.source.Connect("pad-added", func(self *gst.Element, pad *gst.Pad) {
		sinkPad := el.depay.GetStaticPad("sink")
		if sinkPad == nil || sinkPad.IsLinked() {
			return
		}
		caps := pad.GetCurrentCaps()
		if caps == nil {
			return
		}
		structName := ""
		if s := caps.GetStructureAt(0); s != nil {
			structName = s.Name()
		}
		if !strings.HasPrefix(structName, "application/x-rtp") {
			return
		}
		if ret := pad.Link(sinkPad); ret != gst.PadLinkOK {
			log.Error().Str("caps", structName).Msg("failed to link rtspsrc dynamic pad to depay sink")
		}
	})
}
